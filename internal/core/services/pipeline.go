package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
	"github.com/custodia-labs/ragbench/internal/registry"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// Retry defaults for transient embedding failures.
const (
	DefaultMaxRetries     = 4
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultBatchSize      = 16
)

// PipelineService chunks texts and embeds chunk processes, recording every
// run in the ledger.
type PipelineService struct {
	texts     driven.TextStore
	ledger    driven.Ledger
	chunkers  *registry.Registry[driven.Chunker]
	embedders *registry.Registry[driven.EmbeddingService]

	newBackOff func() backoff.BackOff
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	texts driven.TextStore,
	ledger driven.Ledger,
	chunkers *registry.Registry[driven.Chunker],
	embedders *registry.Registry[driven.EmbeddingService],
) *PipelineService {
	return &PipelineService{
		texts:     texts,
		ledger:    ledger,
		chunkers:  chunkers,
		embedders: embedders,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = DefaultInitialBackoff
			return backoff.WithMaxRetries(b, DefaultMaxRetries)
		},
	}
}

// SetBackOff replaces the retry policy for transient embedding failures.
func (s *PipelineService) SetBackOff(newBackOff func() backoff.BackOff) {
	s.newBackOff = newBackOff
}

// ChunkMethods returns the chunking strategies with their parameter schemas.
func (s *PipelineService) ChunkMethods() []domain.Strategy {
	return s.chunkers.Strategies()
}

// EmbeddingMethods returns the embedding strategies with their parameter schemas.
func (s *PipelineService) EmbeddingMethods() []domain.Strategy {
	return s.embedders.Strategies()
}

// ChunkText splits a text and records the result as a new chunk process.
// Parameters are validated before any work; a failed save leaves no process.
func (s *PipelineService) ChunkText(
	ctx context.Context,
	textID, method string,
	params map[string]any,
	name string,
) (*domain.ChunkProcess, error) {
	logger.Section("Chunking")

	chunker, resolved, err := s.chunkers.Build(method, withName(params, name))
	if err != nil {
		return nil, err
	}

	text, err := s.texts.GetText(ctx, textID)
	if err != nil {
		return nil, err
	}

	pieces, err := chunker.Chunk(ctx, text.Content)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: text %q produced no chunks", domain.ErrValidation, text.Name)
	}
	logger.Debug("%s split %q into %d chunks", method, text.Name, len(pieces))

	processID, err := s.ledger.CreateChunkProcess(ctx, textID, method, resolved)
	if err != nil {
		return nil, err
	}

	inputs := make([]domain.ChunkInput, len(pieces))
	for i, p := range pieces {
		inputs[i] = domain.ChunkInput{Index: i, Text: p}
	}
	if err := s.ledger.SaveChunks(ctx, processID, inputs); err != nil {
		// Context may be cancelled; cleanup must still run.
		if delErr := s.ledger.DeleteChunkProcess(context.WithoutCancel(ctx), processID); delErr != nil {
			logger.Op("chunk process cleanup", delErr, "process", processID)
		}
		return nil, err
	}

	return s.ledger.GetChunkProcess(ctx, processID)
}

// EmbedChunkProcess embeds every chunk of a chunk process into a new
// embedding process. On failure the partial process is kept so that
// ResumeEmbedding can finish it.
func (s *PipelineService) EmbedChunkProcess(
	ctx context.Context,
	chunkProcessID, method string,
	params map[string]any,
	name string,
	progress driving.ProgressFunc,
) (*domain.EmbeddingProcess, error) {
	logger.Section("Embedding")

	svc, resolved, err := s.embedders.Build(method, withName(params, name))
	if err != nil {
		return nil, err
	}
	defer closeQuietly(svc)

	if _, err := s.ledger.GetChunkProcess(ctx, chunkProcessID); err != nil {
		return nil, err
	}
	chunks, err := s.ledger.ListChunksByProcess(ctx, chunkProcessID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunk process %s has no chunks", domain.ErrValidation, chunkProcessID)
	}

	cfg := Configuration(method, resolved)
	processID, err := s.ledger.CreateEmbeddingProcess(ctx, chunkProcessID, method, resolved, cfg.Key)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding %d chunks with %s (%s)", len(chunks), svc.ModelName(), cfg.Key)

	if err := s.embedChunks(ctx, svc, processID, chunks, 0, batchSize(resolved), progress); err != nil {
		return nil, fmt.Errorf("embedding process %s: %w", processID, err)
	}
	return s.ledger.GetEmbeddingProcess(ctx, processID)
}

// ResumeEmbedding embeds the chunks an existing process is missing, using
// the method and parameters the process was created with.
func (s *PipelineService) ResumeEmbedding(
	ctx context.Context,
	embeddingProcessID string,
	progress driving.ProgressFunc,
) (*domain.EmbeddingProcess, error) {
	process, err := s.ledger.GetEmbeddingProcess(ctx, embeddingProcessID)
	if err != nil {
		return nil, err
	}

	svc, resolved, err := s.embedders.Build(process.Method, process.Parameters)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(svc)

	chunks, err := s.ledger.ListChunksByProcess(ctx, process.ChunkProcessID)
	if err != nil {
		return nil, err
	}
	existing, err := s.ledger.ListEmbeddingsByProcess(ctx, embeddingProcessID)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(existing))
	for _, e := range existing {
		done[e.ChunkID] = true
	}
	missing := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !done[c.ID] {
			missing = append(missing, c)
		}
	}
	logger.Debug("resuming %s: %d of %d chunks missing", embeddingProcessID, len(missing), len(chunks))

	if err := s.embedChunks(ctx, svc, embeddingProcessID, missing, len(chunks)-len(missing), batchSize(resolved), progress); err != nil {
		return nil, fmt.Errorf("embedding process %s: %w", embeddingProcessID, err)
	}
	return s.ledger.GetEmbeddingProcess(ctx, embeddingProcessID)
}

// embedChunks embeds chunks batch by batch and upserts each vector.
// Cancellation is checked before every save, so a cancelled run keeps
// only the vectors saved so far. Offset is the number of chunks already
// embedded, for progress.
func (s *PipelineService) embedChunks(
	ctx context.Context,
	svc driven.EmbeddingService,
	processID string,
	chunks []domain.Chunk,
	offset, size int,
	progress driving.ProgressFunc,
) error {
	total := offset + len(chunks)
	if progress != nil {
		progress(offset, total)
	}

	for start := 0; start < len(chunks); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+size, len(chunks))
		items := make([]EmbedItem, 0, end-start)
		for _, c := range chunks[start:end] {
			items = append(items, EmbedItem{ID: c.ID, Text: c.Content})
		}

		embedded, err := s.embedWithRetry(ctx, svc, items)
		if err != nil {
			return err
		}
		for _, e := range embedded {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.ledger.SaveEmbedding(ctx, processID, e.ID, e.Vector); err != nil {
				return err
			}
		}

		if progress != nil {
			progress(offset+end, total)
		}
	}
	return nil
}

// embedWithRetry retries transient backend failures with backoff.
func (s *PipelineService) embedWithRetry(
	ctx context.Context,
	svc driven.EmbeddingService,
	items []EmbedItem,
) ([]EmbeddedItem, error) {
	var out []EmbeddedItem
	operation := func() error {
		embedded, err := EmbedItems(ctx, svc, items)
		if err != nil {
			if domain.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = embedded
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("embedding batch failed, retrying in %s: %v", wait, err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return out, nil
}

// ==================== Passthroughs ====================

// ListChunkProcesses returns a text's chunk processes newest first.
func (s *PipelineService) ListChunkProcesses(ctx context.Context, textID string) ([]domain.ChunkProcess, error) {
	return s.ledger.ListChunkProcessesByText(ctx, textID)
}

// GetChunkProcess retrieves a chunk process.
func (s *PipelineService) GetChunkProcess(ctx context.Context, id string) (*domain.ChunkProcess, error) {
	return s.ledger.GetChunkProcess(ctx, id)
}

// ListChunks returns a chunk process's chunks in order.
func (s *PipelineService) ListChunks(ctx context.Context, chunkProcessID string) ([]domain.Chunk, error) {
	return s.ledger.ListChunksByProcess(ctx, chunkProcessID)
}

// RenameChunkProcess changes a chunk process's display name.
func (s *PipelineService) RenameChunkProcess(ctx context.Context, id, name string) error {
	return s.ledger.UpdateChunkProcessName(ctx, id, name)
}

// DeleteChunkProcess removes a chunk process and everything derived from it.
func (s *PipelineService) DeleteChunkProcess(ctx context.Context, id string) error {
	return s.ledger.DeleteChunkProcess(ctx, id)
}

// ListEmbeddingProcesses returns a chunk process's embedding processes newest first.
func (s *PipelineService) ListEmbeddingProcesses(ctx context.Context, chunkProcessID string) ([]domain.EmbeddingProcess, error) {
	return s.ledger.ListEmbeddingProcessesByChunkProcess(ctx, chunkProcessID)
}

// GetEmbeddingProcess retrieves an embedding process.
func (s *PipelineService) GetEmbeddingProcess(ctx context.Context, id string) (*domain.EmbeddingProcess, error) {
	return s.ledger.GetEmbeddingProcess(ctx, id)
}

// CountEmbeddings returns how many chunks of a process are embedded.
func (s *PipelineService) CountEmbeddings(ctx context.Context, embeddingProcessID string) (int, error) {
	return s.ledger.CountEmbeddings(ctx, embeddingProcessID)
}

// RenameEmbeddingProcess changes an embedding process's display name.
func (s *PipelineService) RenameEmbeddingProcess(ctx context.Context, id, name string) error {
	return s.ledger.UpdateEmbeddingProcessName(ctx, id, name)
}

// DeleteEmbeddingProcess removes an embedding process and its embeddings.
func (s *PipelineService) DeleteEmbeddingProcess(ctx context.Context, id string) error {
	return s.ledger.DeleteEmbeddingProcess(ctx, id)
}

// ListUnchunkedTexts returns a domain's texts with no chunk process.
func (s *PipelineService) ListUnchunkedTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.ledger.ListUnchunkedTextsByDomain(ctx, domainID)
}

// ListChunkedTexts returns a domain's texts with at least one chunk process.
func (s *PipelineService) ListChunkedTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.ledger.ListChunkedTextsByDomain(ctx, domainID)
}

// ListDomainsWithChunks returns domains that own at least one chunk.
func (s *PipelineService) ListDomainsWithChunks(ctx context.Context) ([]domain.Domain, error) {
	return s.ledger.ListDomainsWithChunks(ctx)
}

// withName returns a copy of params carrying the display name.
func withName(params map[string]any, name string) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if name != "" {
		out[domain.NameParam] = name
	}
	return out
}

func batchSize(params map[string]any) int {
	if n := domain.IntParam(params, domain.BatchSizeParam); n > 0 {
		return n
	}
	return DefaultBatchSize
}

func closeQuietly(svc driven.EmbeddingService) {
	if err := svc.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("closing %s: %v", svc.ModelName(), err)
	}
}
