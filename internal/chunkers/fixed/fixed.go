// Package fixed provides fixed-size window chunking, with or without overlap.
package fixed

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Method names.
const (
	MethodFixed   = "fixed_length"
	MethodOverlap = "fixed_length_overlap"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Verify interface compliance.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits text into windows of chunkSize characters advancing by
// chunkSize - overlap. Characters are Unicode code points.
type Chunker struct {
	method    string
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters and switches
// the method name to fixed_length_overlap.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
		c.method = MethodOverlap
	}
}

// New creates a chunker. Without WithOverlap windows do not overlap.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		method:    MethodFixed,
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrValidation, c.chunkSize)
	}
	// A step of zero would never advance.
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk_size), got %d", domain.ErrValidation, c.overlap)
	}

	return c, nil
}

// Method returns the strategy name.
func (c *Chunker) Method() string {
	return c.method
}

// Chunk splits text into windows.
// Empty content produces no chunks.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	total := len(runes)
	step := c.chunkSize - c.overlap

	chunks := make([]string, 0, total/step+1)
	for start := 0; start < total; start += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + c.chunkSize
		if end > total {
			end = total
		}
		chunks = append(chunks, string(runes[start:end]))

		if end == total {
			break
		}
	}

	return chunks, nil
}
