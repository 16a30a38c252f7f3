package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText accepts UTF-8 text as is, dropping a byte order mark and
// normalising line endings.
func extractText(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", domain.ErrValidation)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
