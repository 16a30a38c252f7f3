package extractors

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// Elements dropped before reading text.
const hiddenSelector = "script, style, noscript, svg, head, template, iframe"

// Elements that start a new line of text.
const blockSelector = "p, div, br, hr, h1, h2, h3, h4, h5, h6, li, tr, blockquote, pre, table, section, article, header, footer, nav, aside, dt, dd"

var (
	multiSpaces   = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

func extractHTML(_ context.Context, data []byte) (string, error) {
	doc, err := parseHTML(data, "")
	if err != nil {
		return "", err
	}
	return documentText(doc), nil
}

// parseHTML parses data after converting it to UTF-8. contentType may be
// empty or a MIME type with a charset parameter.
func parseHTML(data []byte, contentType string) (*goquery.Document, error) {
	decoded, err := decodeHTML(data, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("%w: parse HTML: %w", domain.ErrValidation, err)
	}
	return doc, nil
}

// decodeHTML converts an HTML document to UTF-8. A UTF-16 byte order mark
// or a charset in contentType is authoritative. Otherwise valid UTF-8 is kept
// and anything else is decoded from its <meta> declaration, falling back
// to windows-1252.
func decodeHTML(data []byte, contentType string) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if !certain && utf8.Valid(data) {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrValidation, name, err)
	}
	// A page declared as UTF-8 may still carry invalid bytes.
	return bytes.ToValidUTF8(out, []byte("\uFFFD")), nil
}

// documentText returns the readable text of a parsed page with one line
// per block element.
func documentText(doc *goquery.Document) string {
	doc.Find(hiddenSelector).Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return cleanText(root.Text())
}

// cleanText collapses runs of spaces, trims each line and drops empty ones.
func cleanText(content string) string {
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	result := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
