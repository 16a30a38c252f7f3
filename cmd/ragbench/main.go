// Command ragbench chunks, embeds and retrieves text, and chats over it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragbench/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragbench/internal/adapters/driven/watcher"
	"github.com/custodia-labs/ragbench/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragbench/internal/chunkers"
	"github.com/custodia-labs/ragbench/internal/compress"
	"github.com/custodia-labs/ragbench/internal/config"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/services"
	"github.com/custodia-labs/ragbench/internal/embedders"
	"github.com/custodia-labs/ragbench/internal/extractors"
	"github.com/custodia-labs/ragbench/internal/logger"
	"github.com/custodia-labs/ragbench/internal/retrievers"
	"github.com/custodia-labs/ragbench/internal/tokenizers"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Getenv("RAGBENCH_CONFIG"))
	if err != nil {
		return fail(err)
	}

	zstd, err := compress.NewZstd()
	if err != nil {
		return fail(err)
	}
	defer zstd.Close()

	store, err := sqlite.NewStore(cfg.DataDir, zstd)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	chunkerRegistry, err := chunkers.NewRegistry()
	if err != nil {
		return fail(err)
	}
	embedderRegistry, err := embedders.NewRegistry(embedders.Providers{
		OllamaBaseURL:     cfg.OllamaBaseURL,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		Timeout:           cfg.ProviderTimeout.Duration,
		RequestsPerSecond: cfg.ProviderRPS,
	})
	if err != nil {
		return fail(err)
	}
	retrieverRegistry, err := retrievers.NewRegistry(store, nil)
	if err != nil {
		return fail(err)
	}

	tokenizer, err := tokenizers.Load(cfg.Tokenizer)
	if err != nil {
		return fail(err)
	}

	// Chat is optional; everything else works without a backend.
	llm, err := ai.CreateLLMService(cfg)
	if err != nil {
		logger.Warn("chat disabled: %v", err)
	}
	if llm != nil {
		defer llm.Close()
	}

	prompts, err := file.NewPromptStore(filepath.Join(cfg.DataDir, file.PromptDir), map[string]string{
		driven.PromptChatSystem: services.DefaultSystemPrompt,
	})
	if err != nil {
		return fail(err)
	}

	library := services.NewLibraryService(store, store, extractors.New(), watcher.New(watcher.DefaultSettle))
	pipeline := services.NewPipelineService(store, store, chunkerRegistry, embedderRegistry)
	retrieval := services.NewRetrievalService(store, store, embedderRegistry, retrieverRegistry)
	catalog := services.NewModelCatalog(store, ai.ModelSources(cfg)...)
	chat := services.NewChatService(retrieval, llm, tokenizer, catalog, services.ChatConfig{
		Source:        cfg.ChatProvider,
		Model:         cfg.ChatModel,
		ContextWindow: cfg.ContextWindow,
		Prompts:       prompts,
	})

	embedMethod, embedParams := ai.EmbeddingDefaults(cfg)
	cli.SetServices(cli.Services{
		Library:        library,
		Pipeline:       pipeline,
		Retrieval:      retrieval,
		Chat:           chat,
		Models:         catalog,
		EmbedMethod:    embedMethod,
		EmbedParams:    embedParams,
		ChatSource:     cfg.ChatProvider,
		ChatModel:      cfg.ChatModel,
		ResponseBuffer: cfg.ResponseBuffer,
	})
	cli.SetVersion(version)

	// Cobra has already printed the error.
	if err := cli.Execute(); err != nil {
		printHint(err)
		return 1
	}
	return 0
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "Error:", err)
	printHint(err)
	return 1
}

func printHint(err error) {
	if hint := cli.Hint(err); hint != "" {
		fmt.Fprintln(os.Stderr, "Hint:", hint)
	}
}
