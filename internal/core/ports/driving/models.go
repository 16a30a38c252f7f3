package driving

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ModelCatalog serves cached model metadata.
type ModelCatalog interface {
	// Get returns cached metadata, fetching it on a miss.
	Get(ctx context.Context, source, modelID string) (*domain.ModelInfo, error)

	// Refresh re-fetches metadata and replaces the cache entry.
	Refresh(ctx context.Context, source, modelID string) (*domain.ModelInfo, error)

	// ContextWindow returns the model's token budget when known.
	ContextWindow(ctx context.Context, source, modelID string) (int, bool)
}
