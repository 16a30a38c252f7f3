package driving

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ProgressFunc reports how many of total items are done.
type ProgressFunc func(done, total int)

// PipelineService runs chunking and embedding jobs and manages their records.
type PipelineService interface {
	// ChunkMethods returns the registered chunking strategies.
	ChunkMethods() []domain.Strategy

	// EmbeddingMethods returns the registered embedding strategies.
	EmbeddingMethods() []domain.Strategy

	// ChunkText validates params, splits the text and records a new chunk
	// process with its chunks. Invalid params fail before any work is done.
	ChunkText(ctx context.Context, textID, method string, params map[string]any, name string) (*domain.ChunkProcess, error)

	// EmbedChunkProcess records a new embedding process and embeds every
	// chunk of the chunk process. Cancellation stops before the next batch
	// and keeps what was saved.
	EmbedChunkProcess(ctx context.Context, chunkProcessID, method string, params map[string]any, name string, progress ProgressFunc) (*domain.EmbeddingProcess, error)

	// ResumeEmbedding embeds the chunks an existing embedding process is missing.
	ResumeEmbedding(ctx context.Context, embeddingProcessID string, progress ProgressFunc) (*domain.EmbeddingProcess, error)

	ListChunkProcesses(ctx context.Context, textID string) ([]domain.ChunkProcess, error)
	GetChunkProcess(ctx context.Context, id string) (*domain.ChunkProcess, error)
	ListChunks(ctx context.Context, chunkProcessID string) ([]domain.Chunk, error)
	RenameChunkProcess(ctx context.Context, id, name string) error
	DeleteChunkProcess(ctx context.Context, id string) error

	ListEmbeddingProcesses(ctx context.Context, chunkProcessID string) ([]domain.EmbeddingProcess, error)
	GetEmbeddingProcess(ctx context.Context, id string) (*domain.EmbeddingProcess, error)
	CountEmbeddings(ctx context.Context, embeddingProcessID string) (int, error)
	RenameEmbeddingProcess(ctx context.Context, id, name string) error
	DeleteEmbeddingProcess(ctx context.Context, id string) error

	ListUnchunkedTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error)
	ListChunkedTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error)
	ListDomainsWithChunks(ctx context.Context) ([]domain.Domain, error)
}
