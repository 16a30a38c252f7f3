// Package chunkers registers the built-in chunking strategies.
package chunkers

import (
	"sync"

	"github.com/custodia-labs/ragbench/internal/chunkers/fixed"
	"github.com/custodia-labs/ragbench/internal/chunkers/recursive"
	"github.com/custodia-labs/ragbench/internal/chunkers/semantic"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/registry"
)

// Registry is the chunker registry type.
type Registry = registry.Registry[driven.Chunker]

// NewRegistry returns a registry with every built-in chunker.
func NewRegistry() (*Registry, error) {
	r := registry.New[driven.Chunker]("chunker")
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) error {
	for _, s := range []struct {
		strategy domain.Strategy
		builder  registry.BuilderFunc[driven.Chunker]
	}{
		{fixedStrategy(), buildFixed},
		{overlapStrategy(), buildOverlap},
		{recursiveStrategy(), buildRecursive},
		{semanticStrategy(), buildSemantic},
	} {
		if err := r.Register(s.strategy, s.builder); err != nil {
			return err
		}
	}
	return nil
}

func chunkSizeParam() domain.ParamSpec {
	return domain.ParamSpec{
		Label:   "Chunk size (characters)",
		Type:    domain.ParamInt,
		Default: fixed.DefaultChunkSize,
		Min:     domain.Bound(1),
		Max:     domain.Bound(1_000_000),
	}
}

func overlapParam() domain.ParamSpec {
	return domain.ParamSpec{
		Label:   "Overlap (characters)",
		Type:    domain.ParamInt,
		Default: fixed.DefaultChunkOverlap,
		Min:     domain.Bound(0),
	}
}

var overlapRule = domain.Rule{Param: "overlap", Op: domain.LessThan, Other: "chunk_size"}

func fixedStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      fixed.MethodFixed,
		Description: "Consecutive non-overlapping windows of chunk_size characters",
		Params:      map[string]domain.ParamSpec{"chunk_size": chunkSizeParam()},
	}
}

func overlapStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      fixed.MethodOverlap,
		Description: "Windows of chunk_size characters advancing by chunk_size - overlap",
		Params: map[string]domain.ParamSpec{
			"chunk_size": chunkSizeParam(),
			"overlap":    overlapParam(),
		},
		Rules: []domain.Rule{overlapRule},
	}
}

func recursiveStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      recursive.Method,
		Description: "Split on paragraphs, lines, words then characters and merge up to chunk_size",
		Params: map[string]domain.ParamSpec{
			"chunk_size": chunkSizeParam(),
			"overlap":    overlapParam(),
			"separators": {
				Label:   "Separators, coarsest first",
				Type:    domain.ParamList,
				Default: recursive.DefaultSeparators,
			},
		},
		Rules: []domain.Rule{overlapRule},
	}
}

func semanticStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      semantic.Method,
		Description: "Pack whole sentences into chunks of at most max_chunk_size characters",
		Params: map[string]domain.ParamSpec{
			"max_chunk_size": {
				Label:   "Maximum chunk size (characters)",
				Type:    domain.ParamInt,
				Default: 1000,
				Min:     domain.Bound(1),
				Max:     domain.Bound(100_000),
			},
			"language": {
				Label:   "Sentence model language",
				Type:    domain.ParamString,
				Default: "english",
				Options: semantic.Languages,
			},
		},
	}
}

func buildFixed(params map[string]any) (driven.Chunker, error) {
	return fixed.New(fixed.WithChunkSize(domain.IntParam(params, "chunk_size")))
}

func buildOverlap(params map[string]any) (driven.Chunker, error) {
	return fixed.New(
		fixed.WithChunkSize(domain.IntParam(params, "chunk_size")),
		fixed.WithOverlap(domain.IntParam(params, "overlap")),
	)
}

func buildRecursive(params map[string]any) (driven.Chunker, error) {
	return recursive.New(
		domain.IntParam(params, "chunk_size"),
		domain.IntParam(params, "overlap"),
		domain.ListParam(params, "separators"),
	)
}

// Sentence models are loaded once per language.
var (
	splittersMu sync.Mutex
	splitters   = map[string]*semantic.Splitter{}
)

func buildSemantic(params map[string]any) (driven.Chunker, error) {
	language := domain.StringParam(params, "language")

	splittersMu.Lock()
	splitter, ok := splitters[language]
	if !ok {
		var err error
		splitter, err = semantic.NewSplitter(language)
		if err != nil {
			splittersMu.Unlock()
			return nil, err
		}
		splitters[language] = splitter
	}
	splittersMu.Unlock()

	return semantic.New(domain.IntParam(params, "max_chunk_size"), splitter)
}
