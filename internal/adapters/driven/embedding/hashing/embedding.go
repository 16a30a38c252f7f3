// Package hashing provides a local embedding service based on feature
// hashing. It needs no network and no model download, which makes it the
// default for offline use and tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 512

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// EmbeddingService hashes lowercase word unigrams and bigrams into a fixed
// number of signed buckets and L2-normalises the result.
type EmbeddingService struct {
	dimensions int
	bigrams    bool
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(dimensions int, bigrams bool) (*EmbeddingService, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrValidation, dimensions)
	}
	return &EmbeddingService{dimensions: dimensions, bigrams: bigrams}, nil
}

// Embed generates a vector embedding for the given text.
// Text without any word yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		s.add(vec, tok)
		if s.bigrams && i > 0 {
			s.add(vec, tokens[i-1]+" "+tok)
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// add hashes a feature into its bucket. One hash bit picks the sign so
// collisions cancel out on average.
func (s *EmbeddingService) add(vec []float64, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName describes the hashing configuration.
func (s *EmbeddingService) ModelName() string {
	if s.bigrams {
		return fmt.Sprintf("hashing-%d-bigrams", s.dimensions)
	}
	return fmt.Sprintf("hashing-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
