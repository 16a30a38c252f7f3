package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// EmbedItem is a text to embed, tagged with the caller's ID.
type EmbedItem struct {
	ID   string
	Text string
}

// EmbeddedItem pairs an item ID with its vector.
type EmbeddedItem struct {
	ID     string
	Vector []float32
}

// EmbedItems embeds items in one batch call and returns vectors in input
// order, one per item.
func EmbedItems(ctx context.Context, svc driven.EmbeddingService, items []EmbedItem) ([]EmbeddedItem, error) {
	if len(items) == 0 {
		return []EmbeddedItem{}, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	vectors, err := svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(items) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts",
			domain.ErrEmbeddingBackend, svc.ModelName(), len(vectors), len(items))
	}

	out := make([]EmbeddedItem, len(items))
	for i, item := range items {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: %s returned an empty vector for %s",
				domain.ErrEmbeddingBackend, svc.ModelName(), item.ID)
		}
		out[i] = EmbeddedItem{ID: item.ID, Vector: vectors[i]}
	}
	return out, nil
}

// EmbedderConfiguration identifies an embedder's vector space.
type EmbedderConfiguration struct {
	Method string
	Params map[string]any

	// Key is the match key stored on embedding processes.
	Key string
}

// Configuration returns the configuration for method and resolved params.
func Configuration(method string, params map[string]any) EmbedderConfiguration {
	return EmbedderConfiguration{
		Method: method,
		Params: params,
		Key:    domain.ConfigKey(method, params),
	}
}
