package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragbench/internal/adapters/driven/provider"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ModelInfoSource = (*ModelInfo)(nil)

// Source is the model cache source name for Ollama.
const Source = "ollama"

// ModelInfo reads model metadata from a local Ollama server.
type ModelInfo struct {
	client  *provider.Client
	baseURL string
}

type showRequest struct {
	Model string `json:"model"`
}

// showResponse is the subset of /api/show this adapter reads. Context
// length lives under an architecture-specific key such as
// "llama.context_length".
type showResponse struct {
	Details struct {
		Family            string `json:"family"`
		ParameterSize     string `json:"parameter_size"`
		QuantizationLevel string `json:"quantization_level"`
	} `json:"details"`
	ModelInfo map[string]any `json:"model_info"`
}

// NewModelInfo creates a model info source for the given server.
func NewModelInfo(baseURL string, timeout time.Duration) *ModelInfo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ModelInfo{
		client: provider.NewClient(provider.Config{
			Name:     "ollama",
			Timeout:  timeout,
			Fallback: domain.ErrLLMUnavailable,
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Source returns the provider name.
func (m *ModelInfo) Source() string {
	return Source
}

// FetchModelInfo asks the server to describe modelID.
func (m *ModelInfo) FetchModelInfo(ctx context.Context, modelID string) (map[string]any, error) {
	var resp showResponse
	err := m.client.Do(ctx, provider.Request{
		Method: http.MethodPost,
		URL:    m.baseURL + "/api/show",
		Body:   showRequest{Model: modelID},
	}, &resp)
	if err != nil {
		return nil, err
	}

	attrs := map[string]any{}
	if resp.Details.Family != "" {
		attrs["family"] = resp.Details.Family
	}
	if resp.Details.ParameterSize != "" {
		attrs["parameter_size"] = resp.Details.ParameterSize
	}
	if resp.Details.QuantizationLevel != "" {
		attrs["quantization_level"] = resp.Details.QuantizationLevel
	}
	for key, v := range resp.ModelInfo {
		if !strings.HasSuffix(key, ".context_length") {
			continue
		}
		if n, ok := v.(float64); ok && n > 0 {
			attrs[domain.AttrContextWindow] = int(n)
		}
	}

	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: ollama model %q reported no metadata", domain.ErrNotFound, modelID)
	}
	return attrs, nil
}
