package embedders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

func TestNewRegistry_Methods(t *testing.T) {
	r, err := NewRegistry(Providers{})
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini", "hashing", "ollama", "openai"}, r.Methods())
}

func TestRegistry_BuildHashing(t *testing.T) {
	r, err := NewRegistry(Providers{})
	require.NoError(t, err)

	svc, params, err := r.Build(MethodHashing, map[string]any{"dimensions": 32})
	require.NoError(t, err)
	assert.Equal(t, 32, svc.Dimensions())
	assert.Equal(t, true, params["bigrams"])
	assert.Equal(t, 64, params[domain.BatchSizeParam])

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 32)
}

func TestRegistry_BuildOllamaUsesProviders(t *testing.T) {
	r, err := NewRegistry(Providers{OllamaBaseURL: "http://example:11434"})
	require.NoError(t, err)

	svc, params, err := r.Build(MethodOllama, nil)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Equal(t, "nomic-embed-text", params["model"])
}

func TestRegistry_OpenAIWithoutKey(t *testing.T) {
	r, err := NewRegistry(Providers{})
	require.NoError(t, err)

	_, _, err = r.Build(MethodOpenAI, nil)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestRegistry_InvalidParams(t *testing.T) {
	r, err := NewRegistry(Providers{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		params map[string]any
	}{
		{"hashing too small", MethodHashing, map[string]any{"dimensions": 4}},
		{"openai unknown model", MethodOpenAI, map[string]any{"model": "gpt-4o"}},
		{"zero batch", MethodOllama, map[string]any{domain.BatchSizeParam: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Build(tt.method, tt.params)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
