// Package extractors turns uploaded documents and web pages into plain text.
package extractors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Extractor = (*Extractors)(nil)

// DefaultFetchTimeout bounds a web page download.
const DefaultFetchTimeout = 30 * time.Second

// maxSize caps the bytes read from a single source.
const maxSize = 256 << 20

// Func extracts text from the raw bytes of one format.
type Func func(ctx context.Context, data []byte) (string, error)

// Extractors selects an extraction function by file extension.
type Extractors struct {
	byExt  map[string]Func
	client *http.Client
}

// Option configures Extractors.
type Option func(*Extractors)

// WithHTTPClient sets the client used for web sources.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractors) {
		e.client = c
	}
}

// New returns extractors for txt, md, html, pdf, epub, docx and eml sources.
func New(opts ...Option) *Extractors {
	e := &Extractors{
		byExt: map[string]Func{
			".txt":   extractText,
			".md":    extractText,
			".html":  extractHTML,
			".htm":   extractHTML,
			".xhtml": extractHTML,
			".pdf":   extractPDF,
			".epub":  extractEPUB,
			".docx":  extractDOCX,
			".eml":   extractEML,
		},
		client: &http.Client{Timeout: DefaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds or replaces the function for an extension such as ".rst".
func (e *Extractors) Register(ext string, fn Func) {
	e.byExt[strings.ToLower(ext)] = fn
}

// Extensions returns the supported extensions in sorted order.
func (e *Extractors) Extensions() []string {
	exts := make([]string, 0, len(e.byExt))
	for ext := range e.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether name has a known extension.
func (e *Extractors) Supports(name string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract reads src and returns its text. URL sources are fetched and
// parsed as HTML.
func (e *Extractors) Extract(ctx context.Context, src domain.Source) (string, error) {
	if src.URL != "" {
		return e.fetch(ctx, src.URL)
	}

	ext := strings.ToLower(filepath.Ext(src.Name))
	fn, ok := e.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, src.Name)
	}
	if src.Reader == nil {
		return "", fmt.Errorf("%w: %s: no content", domain.ErrValidation, src.Name)
	}

	data, err := io.ReadAll(io.LimitReader(src.Reader, maxSize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src.Name, err)
	}
	text, err := fn(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", src.Name, err)
	}
	return text, nil
}
