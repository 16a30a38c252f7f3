package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

func TestEmbedItems(t *testing.T) {
	stub := &stubEmbedder{vector: []float32{0.5, 0.5}}
	items := []EmbedItem{{ID: "b", Text: "second"}, {ID: "a", Text: "first"}}

	out, err := EmbedItems(context.Background(), stub, items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, []float32{0.5, 0.5}, out[1].Vector)
	assert.Equal(t, [][]string{{"second", "first"}}, stub.batches)
}

func TestEmbedItems_Empty(t *testing.T) {
	stub := &stubEmbedder{vector: []float32{1}}

	out, err := EmbedItems(context.Background(), stub, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, stub.batches)
}

func TestEmbedItems_Errors(t *testing.T) {
	short := &stubEmbedder{vector: []float32{1}, short: true}
	_, err := EmbedItems(context.Background(), short, []EmbedItem{{ID: "a", Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)

	empty := &stubEmbedder{}
	_, err = EmbedItems(context.Background(), empty, []EmbedItem{{ID: "a", Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)

	failing := &stubEmbedder{failures: []error{fmt.Errorf("%w: reset", domain.ErrTransientBackend)}}
	_, err = EmbedItems(context.Background(), failing, []EmbedItem{{ID: "a", Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrTransientBackend)
}

func TestConfiguration(t *testing.T) {
	a := Configuration("ollama", map[string]any{"model": "nomic-embed-text", domain.NameParam: "first"})
	b := Configuration("ollama", map[string]any{"model": "nomic-embed-text", domain.BatchSizeParam: 8})
	c := Configuration("ollama", map[string]any{"model": "mxbai-embed-large"})

	assert.Equal(t, a.Key, b.Key)
	assert.NotEqual(t, a.Key, c.Key)
	assert.Equal(t, "ollama", a.Method)
}
