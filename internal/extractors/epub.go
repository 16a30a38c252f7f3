package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// extractEPUB reads the XHTML documents of an EPUB in spine order.
func extractEPUB(ctx context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open EPUB: %w", domain.ErrValidation, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var container epubContainer
	if err := decodeXML(files, "META-INF/container.xml", &container); err != nil {
		return "", err
	}
	if len(container.Rootfiles) == 0 {
		return "", fmt.Errorf("%w: EPUB container lists no package", domain.ErrValidation)
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg epubPackage
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return "", err
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	var parts []string
	for _, ref := range pkg.Spine {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		f, ok := files[path.Join(base, href)]
		if !ok {
			continue
		}
		raw, err := readZipFile(f)
		if err != nil {
			return "", err
		}
		doc, err := parseHTML(raw, "")
		if err != nil {
			return "", fmt.Errorf("%s: %w", href, err)
		}
		if text := documentText(doc); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no text content extracted from EPUB", domain.ErrValidation)
	}
	return strings.Join(parts, "\n\n"), nil
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%w: archive is missing %s", domain.ErrValidation, name)
	}
	raw, err := readZipFile(f)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrValidation, name, err)
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrValidation, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrValidation, f.Name, err)
	}
	return data, nil
}
