package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var (
	embedMethod string
	embedParams []string
	embedName   string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed chunk runs",
	Long: `Embed every chunk of a chunk run and manage the recorded embedding runs.

Without --method the embedding provider and model from the configuration
are used. Interrupting a run keeps the vectors saved so far; finish it
with "ragbench embed resume".`,
}

var embedRunCmd = &cobra.Command{
	Use:   "run [chunk-process-id]",
	Short: "Embed the chunks of a chunk run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedRun,
}

var embedResumeCmd = &cobra.Command{
	Use:   "resume [embedding-process-id]",
	Short: "Embed the chunks an interrupted run is missing",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedResume,
}

var embedListCmd = &cobra.Command{
	Use:   "list [chunk-process-id]",
	Short: "List the embedding runs of a chunk run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedList,
}

var embedMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List embedding methods and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runEmbedMethods,
}

var embedRenameCmd = &cobra.Command{
	Use:   "rename [embedding-process-id] [name]",
	Short: "Rename an embedding run",
	Args:  cobra.ExactArgs(2),
	RunE:  runEmbedRename,
}

var embedDeleteCmd = &cobra.Command{
	Use:   "delete [embedding-process-id]",
	Short: "Delete an embedding run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedDelete,
}

func init() {
	embedRunCmd.Flags().StringVarP(&embedMethod, "method", "m", "", "embedding method (default from configuration)")
	embedRunCmd.Flags().StringArrayVarP(&embedParams, "param", "p", nil, "method parameter as key=value (repeatable)")
	embedRunCmd.Flags().StringVar(&embedName, "name", "", "display name for the run")

	embedCmd.AddCommand(embedRunCmd)
	embedCmd.AddCommand(embedResumeCmd)
	embedCmd.AddCommand(embedListCmd)
	embedCmd.AddCommand(embedMethodsCmd)
	embedCmd.AddCommand(embedRenameCmd)
	embedCmd.AddCommand(embedDeleteCmd)
	rootCmd.AddCommand(embedCmd)
}

func runEmbedRun(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	method, params, err := embedSettings()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	ep, err := pipelineService.EmbedChunkProcess(ctx, args[0], method, params, embedName, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	return printEmbedDone(cmd, ep)
}

// embedSettings merges --param flags over the configured defaults when
// no method is given.
func embedSettings() (string, map[string]any, error) {
	flags, err := parseParams(embedParams)
	if err != nil {
		return "", nil, err
	}
	if embedMethod != "" {
		return embedMethod, flags, nil
	}
	if defaultEmbedMethod == "" {
		return "", nil, errors.New("no embedding method configured (use --method)")
	}

	params := make(map[string]any, len(defaultEmbedParams)+len(flags))
	for k, v := range defaultEmbedParams {
		params[k] = v
	}
	for k, v := range flags {
		params[k] = v
	}
	return defaultEmbedMethod, params, nil
}

func runEmbedResume(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	ctx, stop := signalContext()
	defer stop()

	ep, err := pipelineService.ResumeEmbedding(ctx, args[0], progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("failed to resume embedding: %w", err)
	}

	return printEmbedDone(cmd, ep)
}

func progressPrinter(cmd *cobra.Command) func(done, total int) {
	return func(done, total int) {
		cmd.PrintErrf("\r  embedded %d/%d chunks", done, total)
		if done == total {
			cmd.PrintErrln()
		}
	}
}

func printEmbedDone(cmd *cobra.Command, ep *domain.EmbeddingProcess) error {
	n, err := pipelineService.CountEmbeddings(context.Background(), ep.ID)
	if err != nil {
		return fmt.Errorf("failed to count embeddings: %w", err)
	}
	cmd.Printf("Embedding run %s: %d vectors\n", ep.ID, n)
	cmd.Printf("  Method: %s %s\n", ep.Method, formatParams(ep.Parameters))
	return nil
}

func runEmbedList(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	ctx := context.Background()
	processes, err := pipelineService.ListEmbeddingProcesses(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to list embedding runs: %w", err)
	}

	if len(processes) == 0 {
		cmd.Println("No embedding runs for this chunk run.")
		return nil
	}

	for i := range processes {
		n, err := pipelineService.CountEmbeddings(ctx, processes[i].ID)
		if err != nil {
			return fmt.Errorf("failed to count embeddings: %w", err)
		}
		cmd.Printf("  %s\n", processes[i].DisplayName())
		cmd.Printf("    ID:      %s\n", processes[i].ID)
		cmd.Printf("    Method:  %s %s\n", processes[i].Method, formatParams(processes[i].Parameters))
		cmd.Printf("    Vectors: %d\n", n)
		cmd.Printf("    Created: %s\n", processes[i].CreatedAt.Local().Format(timeFormat))
	}
	return nil
}

func runEmbedMethods(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	cmd.Println("Embedding methods:")
	cmd.Println()
	printStrategies(cmd, pipelineService.EmbeddingMethods())
	return nil
}

func runEmbedRename(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	if err := pipelineService.RenameEmbeddingProcess(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename embedding run: %w", err)
	}

	cmd.Printf("Renamed embedding run %s to %s\n", args[0], args[1])
	return nil
}

func runEmbedDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	if err := pipelineService.DeleteEmbeddingProcess(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete embedding run: %w", err)
	}

	cmd.Printf("Deleted embedding run %s\n", args[0])
	return nil
}
