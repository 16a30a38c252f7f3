package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

const sampleText = "Hello world. This is a test."

func TestPipelineService_ChunkText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)

	cp, err := f.pipeline.ChunkText(ctx, text.ID, "fixed_length", map[string]any{"chunk_size": 10}, "tens")
	require.NoError(t, err)

	assert.Equal(t, text.ID, cp.TextID)
	assert.Equal(t, "fixed_length", cp.Method)
	assert.Equal(t, "tens", cp.DisplayName())
	assert.EqualValues(t, 10, cp.Parameters["chunk_size"])

	chunks, err := f.pipeline.ListChunks(ctx, cp.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hello worl", chunks[0].Content)
	assert.Equal(t, "d. This is", chunks[1].Content)
	assert.Equal(t, " a test.", chunks[2].Content)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestPipelineService_ChunkText_InvalidParamsDoNoWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)

	tests := []struct {
		name    string
		method  string
		params  map[string]any
		wantErr error
	}{
		{"unknown method", "paragraphs", nil, domain.ErrUnsupportedMethod},
		{"unknown param", "fixed_length", map[string]any{"size": 10}, domain.ErrValidation},
		{"zero size", "fixed_length", map[string]any{"chunk_size": 0}, domain.ErrValidation},
		{"overlap too large", "fixed_length_overlap", map[string]any{"chunk_size": 10, "overlap": 10}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.ChunkText(ctx, text.ID, tt.method, tt.params, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	processes, err := f.pipeline.ListChunkProcesses(ctx, text.ID)
	require.NoError(t, err)
	assert.Empty(t, processes)
}

func TestPipelineService_ChunkText_MissingText(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.ChunkText(context.Background(), "missing", "fixed_length", nil, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineService_EmbedChunkProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	var calls [][2]int
	progress := func(done, total int) { calls = append(calls, [2]int{done, total}) }

	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod,
		map[string]any{domain.BatchSizeParam: 2}, "stub run", progress)
	require.NoError(t, err)

	assert.Equal(t, cp.ID, ep.ChunkProcessID)
	assert.Equal(t, "stub run", ep.DisplayName())
	assert.Equal(t, domain.ConfigKey(stubMethod, map[string]any{"dimensions": 3}), ep.ConfigKey)

	n, err := f.pipeline.CountEmbeddings(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, f.embedder.batches, 2)
	assert.Len(t, f.embedder.batches[0], 2)
	assert.Len(t, f.embedder.batches[1], 1)
	assert.Equal(t, [][2]int{{0, 3}, {2, 3}, {3, 3}}, calls)
}

func TestPipelineService_EmbedChunkProcess_RetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	f.embedder.failures = []error{
		fmt.Errorf("%w: timeout", domain.ErrTransientBackend),
		fmt.Errorf("%w: 429", domain.ErrTransientBackend),
	}

	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.NoError(t, err)

	n, err := f.pipeline.CountEmbeddings(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPipelineService_EmbedChunkProcess_PermanentErrorKeepsProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	f.embedder.failures = []error{
		fmt.Errorf("%w: model not found", domain.ErrEmbeddingBackend),
		fmt.Errorf("%w: unreachable", domain.ErrEmbeddingBackend),
	}

	_, embedErr := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.ErrorIs(t, embedErr, domain.ErrEmbeddingBackend)
	assert.Len(t, f.embedder.failures, 1, "permanent errors must not be retried")

	processes, err := f.pipeline.ListEmbeddingProcesses(ctx, cp.ID)
	require.NoError(t, err)
	require.Len(t, processes, 1)
	assert.Contains(t, embedErr.Error(), processes[0].ID)
}

func TestPipelineService_EmbedChunkProcess_VectorCountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)
	f.embedder.short = true

	_, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)
}

func TestPipelineService_EmbedChunkProcess_InvalidParams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	_, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, map[string]any{"model": "x"}, "", nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.pipeline.EmbedChunkProcess(ctx, cp.ID, "word2vec", nil, "", nil)
	require.ErrorIs(t, err, domain.ErrUnsupportedMethod)

	_, err = f.pipeline.EmbedChunkProcess(ctx, "missing", stubMethod, nil, "", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	processes, err := f.pipeline.ListEmbeddingProcesses(ctx, cp.ID)
	require.NoError(t, err)
	assert.Empty(t, processes)
}

func TestPipelineService_CancelThenResume(t *testing.T) {
	f := newFixture(t)
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel as soon as the first batch is saved.
	progress := func(done, _ int) {
		if done > 0 {
			cancel()
		}
	}
	_, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod,
		map[string]any{domain.BatchSizeParam: 2}, "", progress)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)

	bg := context.Background()
	processes, err := f.pipeline.ListEmbeddingProcesses(bg, cp.ID)
	require.NoError(t, err)
	require.Len(t, processes, 1)

	n, err := f.pipeline.CountEmbeddings(bg, processes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "saved embeddings survive cancellation")

	var last [2]int
	ep, err := f.pipeline.ResumeEmbedding(bg, processes[0].ID, func(done, total int) { last = [2]int{done, total} })
	require.NoError(t, err)
	assert.Equal(t, processes[0].ConfigKey, ep.ConfigKey)
	assert.Equal(t, [2]int{3, 3}, last)

	n, err = f.pipeline.CountEmbeddings(bg, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, f.embedder.embedded(), "resume embeds only missing chunks")
}

func TestPipelineService_CancelMidBatchSavesNothingMore(t *testing.T) {
	f := newFixture(t)
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The batch comes back from the backend after the caller gave up.
	f.embedder.onBatch = cancel
	_, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod,
		map[string]any{domain.BatchSizeParam: 3}, "", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, f.embedder.batches, 1)
	assert.Len(t, f.embedder.batches[0], 3)

	bg := context.Background()
	processes, err := f.pipeline.ListEmbeddingProcesses(bg, cp.ID)
	require.NoError(t, err)
	require.Len(t, processes, 1)

	n, err := f.pipeline.CountEmbeddings(bg, processes[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n, "no vector is saved once the context is cancelled")

	f.embedder.onBatch = nil
	ep, err := f.pipeline.ResumeEmbedding(bg, processes[0].ID, nil)
	require.NoError(t, err)

	n, err = f.pipeline.CountEmbeddings(bg, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPipelineService_ResumeCompleteProcessIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.NoError(t, err)
	before := f.embedder.embedded()

	_, err = f.pipeline.ResumeEmbedding(ctx, ep.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, before, f.embedder.embedded())
}

func TestPipelineService_RenameAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, text := f.addText(t, "docs", "sample", sampleText)
	cp := f.chunk(t, text.ID, 10)

	ep, err := f.pipeline.EmbedChunkProcess(ctx, cp.ID, stubMethod, nil, "", nil)
	require.NoError(t, err)

	require.NoError(t, f.pipeline.RenameEmbeddingProcess(ctx, ep.ID, "renamed"))
	got, err := f.pipeline.GetEmbeddingProcess(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.DisplayName())
	assert.Equal(t, ep.ConfigKey, got.ConfigKey, "renaming keeps the config key")

	require.NoError(t, f.pipeline.RenameChunkProcess(ctx, cp.ID, "windows"))
	gotCP, err := f.pipeline.GetChunkProcess(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "windows", gotCP.DisplayName())

	chunked, err := f.pipeline.ListChunkedTexts(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, chunked, 1)

	require.NoError(t, f.pipeline.DeleteChunkProcess(ctx, cp.ID))
	_, err = f.pipeline.GetEmbeddingProcess(ctx, ep.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unchunked, err := f.pipeline.ListUnchunkedTexts(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, unchunked, 1)

	withChunks, err := f.pipeline.ListDomainsWithChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, withChunks)
}

func TestPipelineService_Methods(t *testing.T) {
	f := newFixture(t)

	var chunkMethods []string
	for _, s := range f.pipeline.ChunkMethods() {
		chunkMethods = append(chunkMethods, s.Method)
	}
	assert.Contains(t, chunkMethods, "fixed_length")
	assert.Contains(t, chunkMethods, "recursive")

	var embedMethods []string
	for _, s := range f.pipeline.EmbeddingMethods() {
		embedMethods = append(embedMethods, s.Method)
	}
	assert.Contains(t, embedMethods, stubMethod)
	assert.Contains(t, embedMethods, "hashing")
}
