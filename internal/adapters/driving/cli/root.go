// Package cli implements the ragbench command line on top of the driving ports.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
)

var version = "dev"

// Services injected by main. Commands report an error when theirs is nil.
var (
	libraryService   driving.LibraryService
	pipelineService  driving.PipelineService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	modelCatalog     driving.ModelCatalog
)

// Defaults taken from configuration.
var (
	defaultEmbedMethod    string
	defaultEmbedParams    map[string]any
	defaultChatSource     string
	defaultChatModel      string
	defaultResponseBuffer int
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ragbench",
	Short: "Chunk, embed and chat with your documents",
	Long: `ragbench extracts text from documents, splits it into chunks, embeds the
chunks and answers questions with the most relevant ones.

Every chunking and embedding run is recorded, so different strategies can
be compared side by side on the same texts.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
}

// Services holds the driving ports and configured defaults.
type Services struct {
	Library   driving.LibraryService
	Pipeline  driving.PipelineService
	Retrieval driving.RetrievalService
	Chat      driving.ChatService
	Models    driving.ModelCatalog

	EmbedMethod    string
	EmbedParams    map[string]any
	ChatSource     string
	ChatModel      string
	ResponseBuffer int
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	libraryService = s.Library
	pipelineService = s.Pipeline
	retrievalService = s.Retrieval
	chatService = s.Chat
	modelCatalog = s.Models
	defaultEmbedMethod = s.EmbedMethod
	defaultEmbedParams = s.EmbedParams
	defaultChatSource = s.ChatSource
	defaultChatModel = s.ChatModel
	defaultResponseBuffer = s.ResponseBuffer
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// signalContext is cancelled on interrupt so long jobs stop between batches.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveDomain accepts a domain ID or name.
func resolveDomain(ctx context.Context, ref string) (*domain.Domain, error) {
	if libraryService == nil {
		return nil, errors.New("library service not configured")
	}
	if ref == "" {
		return nil, errors.New("a domain is required (--domain)")
	}
	d, err := libraryService.ResolveDomain(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("domain %q: %w", ref, err)
	}
	return d, nil
}

// parseParams turns repeated key=value flags into strategy parameters.
// Values are read as JSON when they parse, so numbers, booleans and lists
// keep their types; anything else is a plain string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: parameter %q is not key=value", domain.ErrValidation, pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		params[key] = v
	}
	return params, nil
}

// formatParams prints parameters in key order, without the display name.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != domain.NameParam {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}

// printStrategies lists strategies with their parameter schemas.
func printStrategies(cmd *cobra.Command, strategies []domain.Strategy) {
	sort.Slice(strategies, func(i, j int) bool { return strategies[i].Method < strategies[j].Method })
	for _, s := range strategies {
		cmd.Printf("  %s\n", s.Method)
		if s.Description != "" {
			cmd.Printf("    %s\n", s.Description)
		}

		names := make([]string, 0, len(s.Params))
		for name := range s.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := s.Params[name]
			cmd.Printf("    --param %s=<%s>  %s (default %v)\n", name, p.Type, p.Label, p.Default)
		}
		cmd.Println()
	}
}

const timeFormat = "2006-01-02 15:04:05"

// Hint returns advice for errors a user can act on, or "".
func Hint(err error) string {
	switch {
	case errors.Is(err, domain.ErrTransientBackend):
		return "the provider is busy or unreachable; try again shortly"
	case errors.Is(err, domain.ErrAuthentication):
		return "check the provider API key"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "configure a chat provider with RAGBENCH_CHAT_PROVIDER"
	case errors.Is(err, domain.ErrUnsupportedMethod):
		return `list the available methods with "ragbench chunk methods" or "ragbench embed methods"`
	default:
		return ""
	}
}
