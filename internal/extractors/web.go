package extractors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// mainSelector matches the usual content containers of articles and posts.
const mainSelector = "article, main, #content, .content, .post-content, .entry-content"

// fetch downloads a web page and returns its readable text. When the page
// marks its main content, only that content is returned.
func (e *Extractors) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", domain.ErrValidation, url, err)
	}
	req.Header.Set("User-Agent", "ragbench/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "", fmt.Errorf("%w: fetch %s: %w", domain.ErrTransientBackend, url, err)
		}
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrTransientBackend, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrValidation, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrTransientBackend, url, err)
	}
	doc, err := parseHTML(data, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}

	if main := doc.Find(mainSelector).First(); main.Length() > 0 {
		main.Find(hiddenSelector).Remove()
		return documentText(goquery.NewDocumentFromNode(main.Nodes[0])), nil
	}
	return documentText(doc), nil
}
