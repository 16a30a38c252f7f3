package extractors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// emlHeaders are copied above the body in this order.
var emlHeaders = []string{"From", "To", "Date", "Subject"}

// extractEML returns the main headers of an email followed by its body.
// Plain text parts win over HTML ones.
func extractEML(ctx context.Context, data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: parse email: %w", domain.ErrValidation, err)
	}

	var b strings.Builder
	dec := new(mime.WordDecoder)
	for _, name := range emlHeaders {
		v := msg.Header.Get(name)
		if v == "" {
			continue
		}
		if decoded, err := dec.DecodeHeader(v); err == nil {
			v = decoded
		}
		fmt.Fprintf(&b, "%s: %s\n", name, v)
	}

	body, err := emlBody(ctx, msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return "", err
	}
	b.WriteString("\n")
	b.WriteString(body)
	return strings.TrimSpace(b.String()), nil
}

func emlBody(ctx context.Context, contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return emlMultipart(ctx, r, params["boundary"])
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize))
	if err != nil {
		return "", fmt.Errorf("%w: read email body: %w", domain.ErrValidation, err)
	}
	switch mediaType {
	case "text/html":
		doc, err := parseHTML(data, contentType)
		if err != nil {
			return "", err
		}
		return documentText(doc), nil
	case "text/plain":
		if label := params["charset"]; label != "" {
			if data, err = decodeCharset(label, data); err != nil {
				return "", err
			}
		}
		return extractText(ctx, data)
	default:
		return "", nil
	}
}

// decodeCharset converts data from the named charset to UTF-8.
func decodeCharset(label string, data []byte) ([]byte, error) {
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrValidation, label, err)
	}
	return out, nil
}

func emlMultipart(ctx context.Context, r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, html []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read email part: %w", domain.ErrValidation, err)
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		text, err := emlBody(ctx, part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil || text == "" {
			continue
		}
		if mediaType == "text/html" {
			html = append(html, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(html, "\n"), nil
}
