// Package tokenizers loads the token counters used to fit prompts into a
// model's context window.
package tokenizers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Tokenizer names.
const (
	Whitespace = "whitespace"
	Word       = "word"
	Estimate   = "estimate"
)

// DefaultName is the tokenizer used when none is configured.
const DefaultName = Word

var wordPattern = regexp.MustCompile(`\w+(?:[-_]\w+)*|\S`)

// counter adapts a counting function to driven.Tokenizer.
type counter struct {
	name  string
	count func(string) int
}

func (c counter) Name() string                { return c.name }
func (c counter) CountTokens(text string) int { return c.count(text) }

var loaders = map[string]func() driven.Tokenizer{
	// One token per whitespace-separated word.
	Whitespace: func() driven.Tokenizer {
		return counter{name: Whitespace, count: func(s string) int { return len(strings.Fields(s)) }}
	},
	// Words (with inner hyphens or underscores) and single punctuation marks.
	Word: func() driven.Tokenizer {
		return counter{name: Word, count: func(s string) int { return len(wordPattern.FindAllStringIndex(s, -1)) }}
	},
	// Roughly four characters per token, the usual rule of thumb for BPE vocabularies.
	Estimate: func() driven.Tokenizer {
		return counter{name: Estimate, count: func(s string) int { return (utf8.RuneCountInString(s) + 3) / 4 }}
	},
}

// Load returns the tokenizer registered under name.
func Load(name string) (driven.Tokenizer, error) {
	load, ok := loaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: tokenizer %q (available: %s)",
			domain.ErrUnsupportedMethod, name, strings.Join(Names(), ", "))
	}
	return load(), nil
}

// Names returns the available tokenizer names in sorted order.
func Names() []string {
	names := make([]string, 0, len(loaders))
	for name := range loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
