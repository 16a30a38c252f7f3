package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ModelCacheStore persists model metadata keyed by (source, model).
type ModelCacheStore interface {
	// GetModelInfo returns domain.ErrNotFound when nothing is cached.
	GetModelInfo(ctx context.Context, source, modelID string) (*domain.ModelInfo, error)

	// SaveModelInfo inserts or replaces the cached entry.
	SaveModelInfo(ctx context.Context, info *domain.ModelInfo) error
}

// ModelInfoSource looks up model metadata from a provider.
type ModelInfoSource interface {
	// Source returns the provider name used as the cache key.
	Source() string

	// FetchModelInfo queries the provider for a model's attributes.
	FetchModelInfo(ctx context.Context, modelID string) (map[string]any, error)
}
