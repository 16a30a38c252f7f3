// Package semantic packs whole sentences into chunks.
package semantic

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences/english"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Method is the strategy name.
const Method = "semantic"

// Languages with a trained sentence model.
var Languages = []string{"english"}

// SentenceSplitter detects sentence boundaries.
// The returned sentences must concatenate back to the input.
type SentenceSplitter interface {
	Split(text string) []string
}

// Verify interface compliance.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker greedily packs sentences into chunks of at most maxChunkSize
// characters. A sentence longer than the limit becomes a chunk of its own.
type Chunker struct {
	maxChunkSize int
	splitter     SentenceSplitter
}

// New creates a sentence-packing chunker.
func New(maxChunkSize int, splitter SentenceSplitter) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("%w: max_chunk_size must be positive, got %d", domain.ErrValidation, maxChunkSize)
	}
	if splitter == nil {
		return nil, fmt.Errorf("%w: sentence splitter is required", domain.ErrValidation)
	}
	return &Chunker{maxChunkSize: maxChunkSize, splitter: splitter}, nil
}

// Method returns the strategy name.
func (c *Chunker) Method() string {
	return Method
}

// Chunk splits text into sentence-aligned chunks.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	for _, sentence := range c.splitter.Split(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := utf8.RuneCountInString(sentence)
		if size > 0 && size+n > c.maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
		current.WriteString(sentence)
		size += n
	}

	if size > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks, nil
}

// Splitter adapts the punkt sentence tokenizer to SentenceSplitter.
type Splitter struct {
	tokenize func(string) []string
}

// NewSplitter loads the trained sentence model for language.
func NewSplitter(language string) (*Splitter, error) {
	switch language {
	case "english":
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("load %s sentence model: %w", language, err)
		}
		return &Splitter{tokenize: func(text string) []string {
			found := tokenizer.Tokenize(text)
			out := make([]string, 0, len(found))
			for _, s := range found {
				out = append(out, s.Text)
			}
			return out
		}}, nil
	default:
		return nil, fmt.Errorf("%w: no sentence model for language %q", domain.ErrValidation, language)
	}
}

// Split returns the sentences of text. Each sentence is extended to the
// start of the next one so that whitespace between sentences is kept and
// the pieces cover the input exactly.
func (s *Splitter) Split(text string) []string {
	return alignSentences(text, s.tokenize(text))
}

// alignSentences maps detected sentence texts back onto spans of text.
// Sentences that cannot be located are folded into their neighbours.
func alignSentences(text string, detected []string) []string {
	var (
		ends   []int
		cursor int
	)
	for _, sentence := range detected {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		idx := strings.Index(text[cursor:], trimmed)
		if idx < 0 {
			continue
		}
		cursor += idx + len(trimmed)
		ends = append(ends, cursor)
	}

	spans := make([]string, 0, len(ends)+1)
	start := 0
	for i, end := range ends {
		if i == len(ends)-1 {
			end = len(text)
		} else {
			end = nextNonSpace(text, end)
		}
		if end > start {
			spans = append(spans, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		spans = append(spans, text[start:])
	}
	return spans
}

func nextNonSpace(text string, from int) int {
	for i, r := range text[from:] {
		if !strings.ContainsRune(" \t\r\n\f\v", r) {
			return from + i
		}
	}
	return len(text)
}
