package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// Retriever ranks stored embeddings by relevance to a query vector.
type Retriever interface {
	// Method returns the strategy name the retriever was built from.
	Method() string

	// Retrieve returns at most query.TopN results, best match first.
	// An empty candidate set yields an empty result, not an error.
	Retrieve(ctx context.Context, query domain.RetrievalQuery) ([]domain.ScoredEmbedding, error)
}

// CandidateSource supplies the embeddings a retriever ranks.
// The Ledger satisfies it.
type CandidateSource interface {
	ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Candidate, error)
}
