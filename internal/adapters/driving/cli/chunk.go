package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var (
	chunkMethod string
	chunkParams []string
	chunkName   string
	chunkFull   bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split texts into chunks",
	Long: `Run a chunking strategy over a text and manage the recorded runs.

Each run is kept with its method and parameters, so a text can be chunked
several ways and the results compared.`,
}

var chunkRunCmd = &cobra.Command{
	Use:   "run [text-id]",
	Short: "Chunk a text",
	Long: `Chunks a text with the given method. Parameters are passed as key=value:

  ragbench chunk run <text-id> -m fixed_length_overlap -p chunk_size=500 -p overlap=50`,
	Args: cobra.ExactArgs(1),
	RunE: runChunkRun,
}

var chunkListCmd = &cobra.Command{
	Use:   "list [text-id]",
	Short: "List the chunk runs of a text",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunkList,
}

var chunkShowCmd = &cobra.Command{
	Use:   "show [chunk-process-id]",
	Short: "Print the chunks of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunkShow,
}

var chunkMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List chunking methods and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runChunkMethods,
}

var chunkRenameCmd = &cobra.Command{
	Use:   "rename [chunk-process-id] [name]",
	Short: "Rename a chunk run",
	Args:  cobra.ExactArgs(2),
	RunE:  runChunkRename,
}

var chunkDeleteCmd = &cobra.Command{
	Use:   "delete [chunk-process-id]",
	Short: "Delete a chunk run with its embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunkDelete,
}

func init() {
	chunkRunCmd.Flags().StringVarP(&chunkMethod, "method", "m", "recursive", "chunking method")
	chunkRunCmd.Flags().StringArrayVarP(&chunkParams, "param", "p", nil, "method parameter as key=value (repeatable)")
	chunkRunCmd.Flags().StringVar(&chunkName, "name", "", "display name for the run")
	chunkShowCmd.Flags().BoolVar(&chunkFull, "full", false, "print whole chunks instead of previews")

	chunkCmd.AddCommand(chunkRunCmd)
	chunkCmd.AddCommand(chunkListCmd)
	chunkCmd.AddCommand(chunkShowCmd)
	chunkCmd.AddCommand(chunkMethodsCmd)
	chunkCmd.AddCommand(chunkRenameCmd)
	chunkCmd.AddCommand(chunkDeleteCmd)
	rootCmd.AddCommand(chunkCmd)
}

func runChunkRun(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	params, err := parseParams(chunkParams)
	if err != nil {
		return err
	}

	cp, err := pipelineService.ChunkText(context.Background(), args[0], chunkMethod, params, chunkName)
	if err != nil {
		return fmt.Errorf("failed to chunk text: %w", err)
	}

	chunks, err := pipelineService.ListChunks(context.Background(), cp.ID)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	cmd.Printf("Created chunk run %s: %d chunks\n", cp.ID, len(chunks))
	cmd.Printf("  Method: %s %s\n", cp.Method, formatParams(cp.Parameters))
	return nil
}

func runChunkList(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	processes, err := pipelineService.ListChunkProcesses(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list chunk runs: %w", err)
	}

	if len(processes) == 0 {
		cmd.Println("No chunk runs for this text.")
		return nil
	}

	for i := range processes {
		printChunkProcess(cmd, &processes[i])
	}
	return nil
}

func printChunkProcess(cmd *cobra.Command, cp *domain.ChunkProcess) {
	cmd.Printf("  %s\n", cp.DisplayName())
	cmd.Printf("    ID:      %s\n", cp.ID)
	cmd.Printf("    Method:  %s %s\n", cp.Method, formatParams(cp.Parameters))
	cmd.Printf("    Created: %s\n", cp.CreatedAt.Local().Format(timeFormat))
}

func runChunkShow(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	chunks, err := pipelineService.ListChunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	for i := range chunks {
		content := chunks[i].Content
		if !chunkFull {
			content = preview(content, 120)
		}
		cmd.Printf("[%d] %s\n", chunks[i].Index, content)
	}
	cmd.Printf("\nTotal: %d chunks\n", len(chunks))
	return nil
}

func runChunkMethods(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	cmd.Println("Chunking methods:")
	cmd.Println()
	printStrategies(cmd, pipelineService.ChunkMethods())
	return nil
}

func runChunkRename(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	if err := pipelineService.RenameChunkProcess(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename chunk run: %w", err)
	}

	cmd.Printf("Renamed chunk run %s to %s\n", args[0], args[1])
	return nil
}

func runChunkDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	if err := pipelineService.DeleteChunkProcess(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete chunk run: %w", err)
	}

	cmd.Printf("Deleted chunk run %s\n", args[0])
	return nil
}

// preview shortens s to at most n runes on one line.
func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
