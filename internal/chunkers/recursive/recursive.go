// Package recursive splits text on an ordered list of separators, coarsest
// first, and merges the pieces back up to the chunk size.
package recursive

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Method is the strategy name.
const Method = "recursive"

// DefaultSeparators tries paragraph, line, word and finally character breaks.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Verify interface compliance.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker is a recursive separator splitter.
// Separators stay attached to the piece they end, so with zero overlap the
// chunks concatenate back to the input.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a recursive chunker.
func New(chunkSize, overlap int, separators []string) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrValidation, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk_size), got %d", domain.ErrValidation, overlap)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: append([]string(nil), separators...),
	}, nil
}

// Method returns the strategy name.
func (c *Chunker) Method() string {
	return Method
}

// Chunk splits text.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return c.split(ctx, text, c.separators)
}

func (c *Chunker) split(ctx context.Context, text string, separators []string) ([]string, error) {
	sep, rest := pickSeparator(text, separators)

	var pieces []string
	if sep == "" {
		pieces = strings.SplitAfter(text, "")
	} else {
		for _, p := range strings.SplitAfter(text, sep) {
			if p != "" {
				pieces = append(pieces, p)
			}
		}
	}

	var chunks, pending []string
	for _, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if runeLen(piece) <= c.chunkSize {
			pending = append(pending, piece)
			continue
		}

		chunks = append(chunks, c.merge(pending)...)
		pending = nil

		if len(rest) == 0 {
			chunks = append(chunks, c.window(piece)...)
			continue
		}
		sub, err := c.split(ctx, piece, rest)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sub...)
	}

	return append(chunks, c.merge(pending)...), nil
}

// merge packs small pieces into chunks of at most chunkSize characters.
// When a chunk is emitted, trailing pieces totalling at most overlap
// characters are carried into the next one.
func (c *Chunker) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for len(current) > 0 && (total > c.overlap || total+n > c.chunkSize) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

// window hard-splits text that no separator can break further.
func (c *Chunker) window(text string) []string {
	runes := []rune(text)
	step := c.chunkSize - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+c.chunkSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// pickSeparator returns the first separator present in text and the
// finer separators after it. The empty separator always matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
