package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// docxDocument is the part of word/document.xml that carries text.
type docxDocument struct {
	Paragraphs []struct {
		Runs []struct {
			Text []string `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

// extractDOCX returns one line per paragraph of a Word document.
func extractDOCX(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open DOCX: %w", domain.ErrValidation, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var doc docxDocument
	if err := decodeXML(files, "word/document.xml", &doc); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
