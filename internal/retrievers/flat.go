// Package retrievers implements exhaustive similarity search over the
// embeddings selected from the ledger.
package retrievers

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// Method names.
const (
	MethodCosine        = "cosine"
	MethodDistanceDecay = "distance_decay"
)

// DefaultLambda is the default decay rate for distance_decay.
const DefaultLambda = 0.01

// scoreFunc scores one candidate. Norms are precomputed. The returned key
// orders results, higher first, and stays distinct where the score itself
// may underflow.
type scoreFunc func(query []float32, queryNorm float64, vec []float32, vecNorm float64) (score, key float64)

type ranked struct {
	domain.ScoredEmbedding
	key float64
}

// Verify interface compliance.
var _ driven.Retriever = (*FlatRetriever)(nil)

// FlatRetriever scores every candidate and keeps the best TopN.
// Results are ordered best first, ties by embedding id ascending.
// Cosine ranks by score. Distance decay ranks by raw distance.
type FlatRetriever struct {
	method string
	source driven.CandidateSource
	cache  *IndexCache
	score  scoreFunc
}

// NewCosine creates a retriever ranking by cosine similarity.
func NewCosine(source driven.CandidateSource, cache *IndexCache) *FlatRetriever {
	return newFlat(MethodCosine, source, cache, func(q []float32, qNorm float64, v []float32, vNorm float64) (float64, float64) {
		sim := cosine(q, qNorm, v, vNorm)
		return sim, sim
	})
}

// NewDistanceDecay creates a retriever scoring exp(-lambda * L2 distance).
// Ranking uses ascending distance, since the score reaches zero for large
// lambda * distance and would no longer separate candidates.
func NewDistanceDecay(source driven.CandidateSource, cache *IndexCache, lambda float64) (*FlatRetriever, error) {
	if lambda <= 0 || math.IsInf(lambda, 0) || math.IsNaN(lambda) {
		return nil, fmt.Errorf("%w: lambda must be positive, got %g", domain.ErrValidation, lambda)
	}
	return newFlat(MethodDistanceDecay, source, cache, func(q []float32, _ float64, v []float32, _ float64) (float64, float64) {
		d := l2distance(q, v)
		return math.Exp(-lambda * d), -d
	}), nil
}

func newFlat(method string, source driven.CandidateSource, cache *IndexCache, score scoreFunc) *FlatRetriever {
	if cache == nil {
		cache = NewIndexCache(DefaultCacheSize)
	}
	return &FlatRetriever{method: method, source: source, cache: cache, score: score}
}

// Method returns the strategy name.
func (r *FlatRetriever) Method() string {
	return r.method
}

// Retrieve ranks the candidates matching the query's filter.
func (r *FlatRetriever) Retrieve(ctx context.Context, query domain.RetrievalQuery) ([]domain.ScoredEmbedding, error) {
	if query.TopN <= 0 {
		return nil, fmt.Errorf("%w: top_n must be positive, got %d", domain.ErrValidation, query.TopN)
	}
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrValidation)
	}

	candidates, err := r.source.ListCandidates(ctx, domain.CandidateFilter{
		DomainID:  query.DomainID,
		TextIDs:   query.TextIDs,
		ConfigKey: query.ConfigKey,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.ScoredEmbedding{}, nil
	}

	idx := r.cache.get(candidates)
	queryNorm := l2norm(query.Vector)

	results := make([]ranked, 0, len(idx.ids))
	skipped := 0
	for i, vec := range idx.vectors {
		if len(vec) != len(query.Vector) {
			skipped++
			continue
		}
		score, key := r.score(query.Vector, queryNorm, vec, idx.norms[i])
		results = append(results, ranked{
			ScoredEmbedding: domain.ScoredEmbedding{
				EmbeddingID: idx.ids[i],
				ChunkID:     idx.chunkIDs[i],
				Score:       score,
			},
			key: key,
		})
	}
	if skipped > 0 {
		logger.Warn("%s: skipped %d candidates whose dimension differs from the query (%d)",
			r.method, skipped, len(query.Vector))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].key != results[j].key {
			return results[i].key > results[j].key
		}
		return results[i].EmbeddingID < results[j].EmbeddingID
	})

	if len(results) > query.TopN {
		results = results[:query.TopN]
	}
	out := make([]domain.ScoredEmbedding, len(results))
	for i, res := range results {
		out[i] = res.ScoredEmbedding
	}
	return out, nil
}

// cosine returns 0 when either vector is zero.
func cosine(q []float32, qNorm float64, v []float32, vNorm float64) float64 {
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	dot := 0.0
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return dot / (qNorm * vNorm)
}

func l2distance(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
