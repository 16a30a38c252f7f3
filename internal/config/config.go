// Package config loads ragbench settings from defaults, an optional TOML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/logger"
	"github.com/custodia-labs/ragbench/internal/tokenizers"
)

// FileName is the config file looked up in the data directory.
const FileName = "config.toml"

// HashingProvider selects the offline hashing embedder.
const HashingProvider = "hashing"

// Duration is a time.Duration written as "30s" in TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting read at startup.
type Config struct {
	DataDir string `toml:"data_dir" envconfig:"RAGBENCH_DATA_DIR"`

	EmbeddingProvider string `toml:"embedding_provider" envconfig:"RAGBENCH_EMBEDDING_PROVIDER"`
	EmbeddingModel    string `toml:"embedding_model" envconfig:"RAGBENCH_EMBEDDING_MODEL"`

	ChatProvider   string `toml:"chat_provider" envconfig:"RAGBENCH_CHAT_PROVIDER"`
	ChatModel      string `toml:"chat_model" envconfig:"RAGBENCH_CHAT_MODEL"`
	ContextWindow  int    `toml:"context_window" envconfig:"RAGBENCH_CONTEXT_WINDOW"`
	ResponseBuffer int    `toml:"response_buffer" envconfig:"RAGBENCH_RESPONSE_BUFFER"`
	Tokenizer      string `toml:"tokenizer" envconfig:"RAGBENCH_TOKENIZER"`

	OllamaBaseURL   string `toml:"ollama_base_url" envconfig:"OLLAMA_BASE_URL"`
	OpenAIAPIKey    string `toml:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `toml:"openai_base_url" envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `toml:"anthropic_api_key" envconfig:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `toml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`

	ProviderTimeout Duration `toml:"provider_timeout" envconfig:"RAGBENCH_PROVIDER_TIMEOUT"`
	ProviderRPS     float64  `toml:"provider_rps" envconfig:"RAGBENCH_PROVIDER_RPS"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:           defaultDataDir(),
		EmbeddingProvider: string(domain.AIProviderOllama),
		EmbeddingModel:    domain.DefaultEmbeddingModels()[domain.AIProviderOllama],
		ChatProvider:      string(domain.AIProviderOllama),
		ChatModel:         domain.DefaultLLMModels()[domain.AIProviderOllama],
		ContextWindow:     4096,
		ResponseBuffer:    512,
		Tokenizer:         tokenizers.DefaultName,
		OllamaBaseURL:     "http://localhost:11434",
		OpenAIBaseURL:     "https://api.openai.com/v1",
		ProviderTimeout:   Duration{60 * time.Second},
	}
}

// Load reads the configuration. An empty path looks for config.toml in the
// data directory; a missing file is not an error. Values from a .env file
// in the working directory and from the environment override the file.
func Load(path string) (*Config, error) {
	// Variables already set in the shell win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("ignoring .env: %v", err)
	}

	cfg := Default()
	if dir := os.Getenv("RAGBENCH_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if path == "" {
		path = filepath.Join(cfg.DataDir, FileName)
	}

	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file at %s, using defaults", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrInvalidConfiguration, path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfiguration, path, err)
	}
	logger.Debug("loaded config from %s", path)
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", domain.ErrInvalidConfiguration)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("%w: context_window must not be negative, got %d", domain.ErrInvalidConfiguration, c.ContextWindow)
	}
	if c.ResponseBuffer < 0 {
		return fmt.Errorf("%w: response_buffer must not be negative, got %d", domain.ErrInvalidConfiguration, c.ResponseBuffer)
	}
	if c.ContextWindow > 0 && c.ResponseBuffer >= c.ContextWindow {
		return fmt.Errorf("%w: response_buffer %d must be smaller than context_window %d",
			domain.ErrInvalidConfiguration, c.ResponseBuffer, c.ContextWindow)
	}

	if c.EmbeddingProvider != HashingProvider {
		p := domain.AIProvider(c.EmbeddingProvider)
		if !p.IsValid() || !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfiguration, c.EmbeddingProvider)
		}
	}
	if c.ChatProvider != "" {
		p := domain.AIProvider(c.ChatProvider)
		if !p.IsValid() || !p.SupportsChat() {
			return fmt.Errorf("%w: unknown chat provider %q", domain.ErrInvalidConfiguration, c.ChatProvider)
		}
	}

	if _, err := tokenizers.Load(c.Tokenizer); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if c.ProviderTimeout.Duration <= 0 {
		return fmt.Errorf("%w: provider_timeout must be positive", domain.ErrInvalidConfiguration)
	}
	if c.ProviderRPS < 0 {
		return fmt.Errorf("%w: provider_rps must not be negative", domain.ErrInvalidConfiguration)
	}
	return nil
}

// ChatAPIKey returns the key for the configured chat provider.
func (c *Config) ChatAPIKey() string {
	switch domain.AIProvider(c.ChatProvider) {
	case domain.AIProviderOpenAI:
		return c.OpenAIAPIKey
	case domain.AIProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragbench"
	}
	return filepath.Join(home, ".ragbench")
}
