package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// Extractor turns a source document into UTF-8 text.
// Unknown formats fail with domain.ErrUnsupportedFormat.
type Extractor interface {
	Extract(ctx context.Context, src domain.Source) (string, error)
}
