// Package ai builds the chat and model-info adapters selected by the
// loaded configuration.
package ai

import (
	"fmt"

	anthropicllm "github.com/custodia-labs/ragbench/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragbench/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragbench/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/provider"
	"github.com/custodia-labs/ragbench/internal/config"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// CreateLLMService creates the chat backend named by cfg.ChatProvider.
// Returns nil if chat is disabled.
func CreateLLMService(cfg *config.Config) (driven.LLMService, error) {
	if cfg == nil || cfg.ChatProvider == "" {
		return nil, nil
	}

	switch domain.AIProvider(cfg.ChatProvider) {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:           cfg.OllamaBaseURL,
			Model:             cfg.ChatModel,
			Timeout:           cfg.ProviderTimeout.Duration,
			RequestsPerSecond: cfg.ProviderRPS,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			Model:             cfg.ChatModel,
			Timeout:           cfg.ProviderTimeout.Duration,
			RequestsPerSecond: cfg.ProviderRPS,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:            cfg.AnthropicAPIKey,
			Model:             cfg.ChatModel,
			Timeout:           cfg.ProviderTimeout.Duration,
			RequestsPerSecond: cfg.ProviderRPS,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported chat provider: %s", domain.ErrUnsupportedMethod, cfg.ChatProvider)
	}
}

// ModelSources returns one model info source per chat provider.
func ModelSources(cfg *config.Config) []driven.ModelInfoSource {
	return []driven.ModelInfoSource{
		ollamallm.NewModelInfo(cfg.OllamaBaseURL, cfg.ProviderTimeout.Duration),
		provider.NewStaticModelInfo(string(domain.AIProviderOpenAI), nil),
		provider.NewStaticModelInfo(string(domain.AIProviderAnthropic), nil),
	}
}

// EmbeddingDefaults returns the embedder method and parameters used when a
// command does not name one.
func EmbeddingDefaults(cfg *config.Config) (string, map[string]any) {
	params := map[string]any{}
	if cfg.EmbeddingProvider != config.HashingProvider && cfg.EmbeddingModel != "" {
		params["model"] = cfg.EmbeddingModel
	}
	return cfg.EmbeddingProvider, params
}
