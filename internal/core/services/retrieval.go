package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
	"github.com/custodia-labs/ragbench/internal/registry"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds questions in an embedding process's vector space
// and ranks that space's chunks against them.
type RetrievalService struct {
	ledger     driven.Ledger
	texts      driven.TextStore
	embedders  *registry.Registry[driven.EmbeddingService]
	retrievers *registry.Registry[driven.Retriever]
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	ledger driven.Ledger,
	texts driven.TextStore,
	embedders *registry.Registry[driven.EmbeddingService],
	retrievers *registry.Registry[driven.Retriever],
) *RetrievalService {
	return &RetrievalService{
		ledger:     ledger,
		texts:      texts,
		embedders:  embedders,
		retrievers: retrievers,
	}
}

// RetrieverMethods returns the retrieval strategies with their parameter schemas.
func (s *RetrievalService) RetrieverMethods() []domain.Strategy {
	return s.retrievers.Strategies()
}

// Query embeds req.Query with the embedding process's own configuration,
// ranks candidates sharing its config key and hydrates the hits.
func (s *RetrievalService) Query(ctx context.Context, req driving.RetrieveRequest) ([]domain.RetrievedChunk, error) {
	if req.TopN <= 0 {
		return nil, fmt.Errorf("%w: top_n must be positive, got %d", domain.ErrValidation, req.TopN)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if req.EmbeddingProcessID == "" {
		return nil, fmt.Errorf("%w: embedding process is required", domain.ErrValidation)
	}

	process, err := s.ledger.GetEmbeddingProcess(ctx, req.EmbeddingProcessID)
	if err != nil {
		return nil, err
	}

	embedder, _, err := s.embedders.Build(process.Method, process.Parameters)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(embedder)

	vector, err := embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	retriever, _, err := s.retrievers.Build(req.Retriever, req.RetrieverParams)
	if err != nil {
		return nil, err
	}

	scored, err := retriever.Retrieve(ctx, domain.RetrievalQuery{
		DomainID:  req.DomainID,
		Vector:    vector,
		TopN:      req.TopN,
		TextIDs:   req.TextIDs,
		ConfigKey: process.ConfigKey,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("%s returned %d of top %d for %s", retriever.Method(), len(scored), req.TopN, process.ConfigKey)

	return s.hydrate(ctx, req.DomainID, scored)
}

// hydrate attaches chunk content and text names to scored embeddings.
// Hits on the same chunk keep only the best score.
func (s *RetrievalService) hydrate(
	ctx context.Context,
	domainID string,
	scored []domain.ScoredEmbedding,
) ([]domain.RetrievedChunk, error) {
	out := make([]domain.RetrievedChunk, 0, len(scored))
	if len(scored) == 0 {
		return out, nil
	}

	names := map[string]string{}
	if domainID != "" {
		summaries, err := s.texts.ListTexts(ctx, domainID)
		if err != nil {
			return nil, err
		}
		for _, t := range summaries {
			names[t.ID] = t.Name
		}
	}

	processText := map[string]string{}
	seen := map[string]bool{}
	for _, hit := range scored {
		if seen[hit.ChunkID] {
			continue
		}
		seen[hit.ChunkID] = true

		chunk, err := s.ledger.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			return nil, err
		}

		textID, ok := processText[chunk.ProcessID]
		if !ok {
			process, err := s.ledger.GetChunkProcess(ctx, chunk.ProcessID)
			if err != nil {
				return nil, err
			}
			textID = process.TextID
			processText[chunk.ProcessID] = textID
		}

		name, ok := names[textID]
		if !ok {
			text, err := s.texts.GetText(ctx, textID)
			if err != nil {
				return nil, err
			}
			name = text.Name
			names[textID] = name
		}

		out = append(out, domain.RetrievedChunk{
			EmbeddingID: hit.EmbeddingID,
			Chunk:       *chunk,
			TextID:      textID,
			TextName:    name,
			Score:       hit.Score,
		})
	}
	return out, nil
}
