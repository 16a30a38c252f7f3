package retrievers

import (
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/registry"
)

// Registry is the retriever registry type.
type Registry = registry.Registry[driven.Retriever]

// NewRegistry returns a registry with every built-in retriever. All
// retrievers read candidates from source and share cache.
func NewRegistry(source driven.CandidateSource, cache *IndexCache) (*Registry, error) {
	if cache == nil {
		cache = NewIndexCache(DefaultCacheSize)
	}

	r := registry.New[driven.Retriever]("retriever")

	err := r.Register(domain.Strategy{
		Method:      MethodCosine,
		Description: "Cosine similarity, highest first",
		Params:      map[string]domain.ParamSpec{},
	}, func(map[string]any) (driven.Retriever, error) {
		return NewCosine(source, cache), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.Register(domain.Strategy{
		Method:      MethodDistanceDecay,
		Description: "exp(-lambda * L2 distance), nearest first",
		Params: map[string]domain.ParamSpec{
			"lambda": {
				Label:   "Decay rate",
				Type:    domain.ParamFloat,
				Default: DefaultLambda,
				Max:     domain.Bound(100),
			},
		},
		Rules: []domain.Rule{{Param: "lambda", Op: domain.GreaterThan, Constant: 0}},
	}, func(params map[string]any) (driven.Retriever, error) {
		return NewDistanceDecay(source, cache, domain.FloatParam(params, "lambda"))
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}
