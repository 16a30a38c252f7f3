package driving

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// RetrieveRequest is a text query against one embedding process's vector space.
type RetrieveRequest struct {
	// DomainID restricts candidates to one domain.
	DomainID string

	// Query is the question text. It is embedded with the embedding
	// process's own configuration.
	Query string

	// EmbeddingProcessID selects the vector space.
	EmbeddingProcessID string

	// Retriever and RetrieverParams select the ranking strategy.
	Retriever       string
	RetrieverParams map[string]any

	// TopN is the maximum number of results.
	TopN int

	// TextIDs optionally restricts candidates to a subset of texts.
	TextIDs []string
}

// RetrievalService answers similarity queries.
type RetrievalService interface {
	// RetrieverMethods returns the registered retrieval strategies.
	RetrieverMethods() []domain.Strategy

	// Query embeds the question, ranks candidates and hydrates the hits.
	Query(ctx context.Context, req RetrieveRequest) ([]domain.RetrievedChunk, error)
}
