package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// Ledger is the durable bookkeeping for chunk and embedding processes.
// Every operation commits or rolls back as a unit.
type Ledger interface {
	CandidateSource

	// CreateChunkProcess always creates a new process. A missing text fails
	// with domain.ErrValidation.
	CreateChunkProcess(ctx context.Context, textID, method string, params map[string]any) (string, error)

	// SaveChunks stores all chunks of a process in one transaction.
	// Indexes must be exactly 0..n-1.
	SaveChunks(ctx context.Context, processID string, chunks []domain.ChunkInput) error

	GetChunkProcess(ctx context.Context, id string) (*domain.ChunkProcess, error)

	// ListChunkProcessesByText returns processes newest first.
	ListChunkProcessesByText(ctx context.Context, textID string) ([]domain.ChunkProcess, error)

	// ListChunksByProcess returns chunks in index order.
	ListChunksByProcess(ctx context.Context, processID string) ([]domain.Chunk, error)

	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// UpdateChunkProcessName renames a process. Nothing else is mutable.
	UpdateChunkProcessName(ctx context.Context, id, name string) error

	// DeleteChunkProcess removes embeddings, embedding processes, chunks and
	// then the process itself.
	DeleteChunkProcess(ctx context.Context, id string) error

	// DeleteChunksByProcess removes a process's chunks and the embeddings
	// that reference them, keeping the process row.
	DeleteChunksByProcess(ctx context.Context, processID string) error

	// CreateEmbeddingProcess always creates a new process. A missing chunk
	// process fails with domain.ErrValidation.
	CreateEmbeddingProcess(ctx context.Context, chunkProcessID, method string, params map[string]any, configKey string) (string, error)

	GetEmbeddingProcess(ctx context.Context, id string) (*domain.EmbeddingProcess, error)

	// ListEmbeddingProcessesByChunkProcess returns processes newest first.
	ListEmbeddingProcessesByChunkProcess(ctx context.Context, chunkProcessID string) ([]domain.EmbeddingProcess, error)

	UpdateEmbeddingProcessName(ctx context.Context, id, name string) error

	// DeleteEmbeddingProcess removes the embeddings and then the process.
	DeleteEmbeddingProcess(ctx context.Context, id string) error

	// SaveEmbedding inserts or replaces the vector for (processID, chunkID).
	SaveEmbedding(ctx context.Context, processID, chunkID string, vector []float32) error

	ListEmbeddingsByProcess(ctx context.Context, processID string) ([]domain.Embedding, error)

	CountEmbeddings(ctx context.Context, processID string) (int, error)

	// ListUnchunkedTextsByDomain returns texts with no chunk process.
	ListUnchunkedTextsByDomain(ctx context.Context, domainID string) ([]domain.TextSummary, error)

	// ListChunkedTextsByDomain returns texts with at least one chunk process.
	ListChunkedTextsByDomain(ctx context.Context, domainID string) ([]domain.TextSummary, error)

	// ListDomainsWithChunks returns domains owning at least one chunk.
	ListDomainsWithChunks(ctx context.Context) ([]domain.Domain, error)

	// ListTextsByDomainAndEmbedder returns texts embedded under configKey.
	ListTextsByDomainAndEmbedder(ctx context.Context, domainID, configKey string) ([]domain.TextSummary, error)
}
