package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// Ensure ModelCatalog implements the interface.
var _ driving.ModelCatalog = (*ModelCatalog)(nil)

// ModelCatalog caches provider model metadata in the store.
type ModelCatalog struct {
	cache   driven.ModelCacheStore
	sources map[string]driven.ModelInfoSource
	now     func() time.Time
}

// NewModelCatalog creates a catalog over the given sources, keyed by
// their Source name.
func NewModelCatalog(cache driven.ModelCacheStore, sources ...driven.ModelInfoSource) *ModelCatalog {
	c := &ModelCatalog{
		cache:   cache,
		sources: make(map[string]driven.ModelInfoSource, len(sources)),
		now:     time.Now,
	}
	for _, s := range sources {
		c.sources[s.Source()] = s
	}
	return c
}

// Get returns cached metadata, fetching it on a miss.
func (c *ModelCatalog) Get(ctx context.Context, source, modelID string) (*domain.ModelInfo, error) {
	info, err := c.cache.GetModelInfo(ctx, source, modelID)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return c.Refresh(ctx, source, modelID)
}

// Refresh re-fetches metadata and replaces the cache entry.
func (c *ModelCatalog) Refresh(ctx context.Context, source, modelID string) (*domain.ModelInfo, error) {
	src, ok := c.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: model source %q", domain.ErrUnsupportedMethod, source)
	}

	attrs, err := src.FetchModelInfo(ctx, modelID)
	if err != nil {
		return nil, err
	}

	info := &domain.ModelInfo{
		Source:     source,
		ModelID:    modelID,
		Attributes: attrs,
		UpdatedAt:  c.now().UTC(),
	}
	if err := c.cache.SaveModelInfo(ctx, info); err != nil {
		return nil, err
	}
	logger.Debug("cached %s model %s (%d attributes)", source, modelID, len(attrs))
	return info, nil
}

// ContextWindow returns the model's token budget when known. Lookup
// failures are logged and reported as unknown.
func (c *ModelCatalog) ContextWindow(ctx context.Context, source, modelID string) (int, bool) {
	info, err := c.Get(ctx, source, modelID)
	if err != nil {
		logger.Debug("no context window for %s model %s: %v", source, modelID, err)
		return 0, false
	}
	return info.ContextWindow()
}
