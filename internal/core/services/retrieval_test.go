package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
)

func TestRetrievalService_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 15)

	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.NoError(t, err)

	hits, err := f.retrieval.Query(ctx, driving.RetrieveRequest{
		DomainID:           d.ID,
		Query:              "what is this?",
		EmbeddingProcessID: ep.ID,
		Retriever:          "cosine",
		TopN:               5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	contents := []string{hits[0].Chunk.Content, hits[1].Chunk.Content}
	assert.ElementsMatch(t, []string{"Hello world. Th", "is is a test."}, contents)
	for _, h := range hits {
		assert.InDelta(t, 1.0, h.Score, 1e-9)
		assert.Equal(t, text.ID, h.TextID)
		assert.Equal(t, "sample", h.TextName)
	}
	assert.Less(t, hits[0].EmbeddingID, hits[1].EmbeddingID, "ties break by embedding id")
}

func TestRetrievalService_OnlySearchesTheProcessVectorSpace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, text := f.addText(t, "docs", "sample", sampleText)

	first, err := f.pipeline.EmbedChunkProcess(ctx, f.chunk(t, text.ID, 15).ID, stubMethod, nil, "", nil)
	require.NoError(t, err)
	_, err = f.pipeline.EmbedChunkProcess(ctx, f.chunk(t, text.ID, 10).ID, stubMethod,
		map[string]any{"dimensions": 4}, "", nil)
	require.NoError(t, err)

	hits, err := f.retrieval.Query(ctx, driving.RetrieveRequest{
		DomainID:           d.ID,
		Query:              "q",
		EmbeddingProcessID: first.ID,
		Retriever:          "distance_decay",
		TopN:               10,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.InDelta(t, 1.0, h.Score, 1e-9)
	}
}

func TestRetrievalService_TextFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, a := f.addText(t, "docs", "a", sampleText)
	_, b := f.addText(t, "docs", "b", "Another text entirely.")

	cp := f.chunk(t, a.ID, 15)
	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.NoError(t, err)

	hits, err := f.retrieval.Query(ctx, driving.RetrieveRequest{
		DomainID:           d.ID,
		Query:              "q",
		EmbeddingProcessID: ep.ID,
		Retriever:          "cosine",
		TopN:               10,
		TextIDs:            []string{b.ID},
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrievalService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, text := f.addText(t, "docs", "sample", sampleText)
	ep, err := f.pipeline.EmbedChunkProcess(ctx, f.chunk(t, text.ID, 15).ID, stubMethod, nil, "", nil)
	require.NoError(t, err)

	base := driving.RetrieveRequest{
		DomainID:           d.ID,
		Query:              "q",
		EmbeddingProcessID: ep.ID,
		Retriever:          "cosine",
		TopN:               3,
	}

	tests := []struct {
		name    string
		mutate  func(*driving.RetrieveRequest)
		wantErr error
	}{
		{"zero top n", func(r *driving.RetrieveRequest) { r.TopN = 0 }, domain.ErrValidation},
		{"empty query", func(r *driving.RetrieveRequest) { r.Query = "" }, domain.ErrValidation},
		{"no process", func(r *driving.RetrieveRequest) { r.EmbeddingProcessID = "" }, domain.ErrValidation},
		{"unknown process", func(r *driving.RetrieveRequest) { r.EmbeddingProcessID = "missing" }, domain.ErrNotFound},
		{"unknown retriever", func(r *driving.RetrieveRequest) { r.Retriever = "bm25" }, domain.ErrUnsupportedMethod},
		{"bad lambda", func(r *driving.RetrieveRequest) {
			r.Retriever = "distance_decay"
			r.RetrieverParams = map[string]any{"lambda": -1.0}
		}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.retrieval.Query(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRetrievalService_RetrieverMethods(t *testing.T) {
	f := newFixture(t)

	var methods []string
	for _, s := range f.retrieval.RetrieverMethods() {
		methods = append(methods, s.Method)
	}
	assert.ElementsMatch(t, []string{"cosine", "distance_decay"}, methods)
}
