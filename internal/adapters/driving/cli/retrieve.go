package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
)

var (
	retrieveDomain  string
	retrieveProcess string
	retrieveMethod  string
	retrieveParams  []string
	retrieveTopN    int
	retrieveTextIDs []string
	retrieveJSON    bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Find the chunks most similar to a query",
	Long: `Embeds the query with the same configuration as the chosen embedding run
and ranks the domain's chunks from that run's vector space.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

var retrieveMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List retrieval methods and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runRetrieveMethods,
}

func init() {
	f := retrieveCmd.Flags()
	f.StringVarP(&retrieveDomain, "domain", "d", "", "domain name or ID")
	f.StringVarP(&retrieveProcess, "embedding", "e", "", "embedding run ID")
	f.StringVarP(&retrieveMethod, "method", "m", "cosine", "retrieval method")
	f.StringArrayVarP(&retrieveParams, "param", "p", nil, "method parameter as key=value (repeatable)")
	f.IntVarP(&retrieveTopN, "top", "n", 5, "maximum number of results")
	f.StringSliceVar(&retrieveTextIDs, "text", nil, "restrict to these text IDs")
	f.BoolVar(&retrieveJSON, "json", false, "output results as JSON")

	retrieveCmd.AddCommand(retrieveMethodsCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	d, err := resolveDomain(ctx, retrieveDomain)
	if err != nil {
		return err
	}
	if retrieveProcess == "" {
		return errors.New("an embedding run is required (--embedding)")
	}

	params, err := parseParams(retrieveParams)
	if err != nil {
		return err
	}

	results, err := retrievalService.Query(ctx, driving.RetrieveRequest{
		DomainID:           d.ID,
		Query:              args[0],
		EmbeddingProcessID: retrieveProcess,
		Retriever:          retrieveMethod,
		RetrieverParams:    params,
		TopN:               retrieveTopN,
		TextIDs:            retrieveTextIDs,
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, results)
	}
	outputRetrieveTable(cmd, results)
	return nil
}

type retrieveResult struct {
	Score    float64 `json:"score"`
	TextID   string  `json:"text_id"`
	TextName string  `json:"text_name"`
	ChunkID  string  `json:"chunk_id"`
	Index    int     `json:"index"`
	Content  string  `json:"content"`
}

func outputRetrieveJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	out := make([]retrieveResult, len(results))
	for i, r := range results {
		out[i] = retrieveResult{
			Score:    r.Score,
			TextID:   r.TextID,
			TextName: r.TextName,
			ChunkID:  r.Chunk.ID,
			Index:    r.Chunk.Index,
			Content:  r.Chunk.Content,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, results []domain.RetrievedChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s #%d (%.4f)\n", i+1, results[i].TextName, results[i].Chunk.Index, results[i].Score)
		cmd.Printf("      %s\n", preview(results[i].Chunk.Content, 200))
		cmd.Println()
	}
}

func runRetrieveMethods(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	cmd.Println("Retrieval methods:")
	cmd.Println()
	printStrategies(cmd, retrievalService.RetrieverMethods())
	return nil
}
