package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var modelSource string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect cached model metadata",
	Long: `Shows what is known about a chat model, such as its context window.
Metadata is fetched from the provider once and cached.`,
}

var modelInfoCmd = &cobra.Command{
	Use:   "info [model]",
	Short: "Show model metadata",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelInfo,
}

var modelRefreshCmd = &cobra.Command{
	Use:   "refresh [model]",
	Short: "Re-fetch model metadata from the provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelRefresh,
}

func init() {
	for _, c := range []*cobra.Command{modelInfoCmd, modelRefreshCmd} {
		c.Flags().StringVarP(&modelSource, "source", "s", "", "provider (default: configured chat provider)")
	}
	modelCmd.AddCommand(modelInfoCmd)
	modelCmd.AddCommand(modelRefreshCmd)
	rootCmd.AddCommand(modelCmd)
}

func runModelInfo(cmd *cobra.Command, args []string) error {
	source, model, err := modelTarget(args)
	if err != nil {
		return err
	}

	info, err := modelCatalog.Get(context.Background(), source, model)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}
	printModelInfo(cmd, info)
	return nil
}

func runModelRefresh(cmd *cobra.Command, args []string) error {
	source, model, err := modelTarget(args)
	if err != nil {
		return err
	}

	info, err := modelCatalog.Refresh(context.Background(), source, model)
	if err != nil {
		return fmt.Errorf("failed to refresh model info: %w", err)
	}
	printModelInfo(cmd, info)
	return nil
}

func modelTarget(args []string) (string, string, error) {
	if modelCatalog == nil {
		return "", "", errors.New("model catalog not configured")
	}

	source, model := modelSource, defaultChatModel
	if source == "" {
		source = defaultChatSource
	}
	if len(args) == 1 {
		model = args[0]
	}
	if source == "" || model == "" {
		return "", "", errors.New("no model given and no chat model configured")
	}
	return source, model, nil
}

func printModelInfo(cmd *cobra.Command, info *domain.ModelInfo) {
	cmd.Printf("Model: %s (%s)\n\n", info.ModelID, info.Source)

	if n, ok := info.ContextWindow(); ok {
		cmd.Printf("  Context window: %d tokens\n", n)
	}

	keys := make([]string, 0, len(info.Attributes))
	for k := range info.Attributes {
		if k != domain.AttrContextWindow {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %v\n", k, info.Attributes[k])
	}

	cmd.Printf("\n  Updated: %s\n", info.UpdatedAt.Local().Format(timeFormat))
}
