// Package embedders registers the built-in embedding strategies.
package embedders

import (
	"context"
	"time"

	"google.golang.org/api/option"

	"github.com/custodia-labs/ragbench/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/registry"
)

// Method names.
const (
	MethodOllama  = "ollama"
	MethodOpenAI  = "openai"
	MethodGemini  = "gemini"
	MethodHashing = "hashing"
)

// Registry is the embedder registry type.
type Registry = registry.Registry[driven.EmbeddingService]

// Providers carries connection settings that are not part of an
// embedding configuration's identity.
type Providers struct {
	OllamaBaseURL     string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	Timeout           time.Duration
	RequestsPerSecond float64

	// GeminiOptions are extra client options, such as a test endpoint.
	GeminiOptions []option.ClientOption
}

// NewRegistry returns a registry with every built-in embedder.
func NewRegistry(p Providers) (*Registry, error) {
	r := registry.New[driven.EmbeddingService]("embedder")
	if err := RegisterDefaults(r, p); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterDefaults registers all built-in embedders with the registry.
func RegisterDefaults(r *Registry, p Providers) error {
	b := builders{p: p}
	for _, s := range []struct {
		strategy domain.Strategy
		builder  registry.BuilderFunc[driven.EmbeddingService]
	}{
		{ollamaStrategy(), b.ollama},
		{openaiStrategy(), b.openai},
		{geminiStrategy(), b.gemini},
		{hashingStrategy(), b.hashing},
	} {
		if err := r.Register(s.strategy, s.builder); err != nil {
			return err
		}
	}
	return nil
}

func batchSizeParam(def int) domain.ParamSpec {
	return domain.ParamSpec{
		Label:   "Chunks per request",
		Type:    domain.ParamInt,
		Default: def,
		Min:     domain.Bound(1),
		Max:     domain.Bound(2048),
	}
}

func ollamaStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      MethodOllama,
		Description: "Local Ollama embedding model",
		Params: map[string]domain.ParamSpec{
			"model": {
				Label:   "Model",
				Type:    domain.ParamString,
				Default: domain.DefaultEmbeddingModels()[domain.AIProviderOllama],
			},
			domain.BatchSizeParam: batchSizeParam(16),
		},
	}
}

func openaiStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      MethodOpenAI,
		Description: "OpenAI embeddings API",
		Params: map[string]domain.ParamSpec{
			"model": {
				Label:   "Model",
				Type:    domain.ParamString,
				Default: domain.DefaultEmbeddingModels()[domain.AIProviderOpenAI],
				Options: []string{"text-embedding-3-small", "text-embedding-3-large", "text-embedding-ada-002"},
			},
			"dimensions": {
				Label:   "Dimensions (0 = model default)",
				Type:    domain.ParamInt,
				Default: 0,
				Min:     domain.Bound(0),
				Max:     domain.Bound(3072),
			},
			domain.BatchSizeParam: batchSizeParam(64),
		},
	}
}

func geminiStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      MethodGemini,
		Description: "Google Gemini embeddings API",
		Params: map[string]domain.ParamSpec{
			"model": {
				Label:   "Model",
				Type:    domain.ParamString,
				Default: domain.DefaultEmbeddingModels()[domain.AIProviderGemini],
			},
			domain.BatchSizeParam: batchSizeParam(16),
		},
	}
}

func hashingStrategy() domain.Strategy {
	return domain.Strategy{
		Method:      MethodHashing,
		Description: "Local feature hashing of words and word pairs (no network)",
		Params: map[string]domain.ParamSpec{
			"dimensions": {
				Label:   "Dimensions",
				Type:    domain.ParamInt,
				Default: hashing.DefaultDimensions,
				Min:     domain.Bound(8),
				Max:     domain.Bound(65536),
			},
			"bigrams": {
				Label:   "Include word pairs",
				Type:    domain.ParamBool,
				Default: true,
			},
			domain.BatchSizeParam: batchSizeParam(64),
		},
	}
}

type builders struct {
	p Providers
}

func (b builders) ollama(params map[string]any) (driven.EmbeddingService, error) {
	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL:           b.p.OllamaBaseURL,
		Model:             domain.StringParam(params, "model"),
		Timeout:           b.p.Timeout,
		RequestsPerSecond: b.p.RequestsPerSecond,
	}), nil
}

func (b builders) openai(params map[string]any) (driven.EmbeddingService, error) {
	return openai.NewEmbeddingService(openai.Config{
		APIKey:            b.p.OpenAIAPIKey,
		BaseURL:           b.p.OpenAIBaseURL,
		Model:             domain.StringParam(params, "model"),
		Dimensions:        domain.IntParam(params, "dimensions"),
		Timeout:           b.p.Timeout,
		RequestsPerSecond: b.p.RequestsPerSecond,
	})
}

func (b builders) gemini(params map[string]any) (driven.EmbeddingService, error) {
	// The context only scopes client construction.
	return gemini.NewEmbeddingService(context.Background(), gemini.Config{
		APIKey:  b.p.GeminiAPIKey,
		Model:   domain.StringParam(params, "model"),
		Options: b.p.GeminiOptions,
	})
}

func (b builders) hashing(params map[string]any) (driven.EmbeddingService, error) {
	bigrams, _ := params["bigrams"].(bool)
	return hashing.NewEmbeddingService(domain.IntParam(params, "dimensions"), bigrams)
}
