package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var (
	textDomain string
	textName   string
	textURL    string
	textEdited bool

	textChunked   bool
	textUnchunked bool
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Manage extracted texts",
	Long: `Add documents to a domain, inspect the extracted text and remove texts.

Supported formats: .txt, .md, .html, .htm, .pdf and .epub files, and web pages.`,
}

var textAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Extract and store documents",
	Long: `Extracts text from each file (or from --url) and stores it in the domain.
The text name defaults to the file name without its extension.`,
	RunE: runTextAdd,
}

var textListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the texts of a domain",
	Args:  cobra.NoArgs,
	RunE:  runTextList,
}

var textShowCmd = &cobra.Command{
	Use:   "show [text-id]",
	Short: "Print a text's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runTextShow,
}

var textDeleteCmd = &cobra.Command{
	Use:   "delete [text-id...]",
	Short: "Delete texts with their chunks and embeddings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTextDelete,
}

var textWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents dropped into a folder",
	Long:  `Watches a folder and stores every new or rewritten document until interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTextWatch,
}

func init() {
	for _, c := range []*cobra.Command{textAddCmd, textListCmd, textWatchCmd} {
		c.Flags().StringVarP(&textDomain, "domain", "d", "", "domain name or ID")
	}
	textAddCmd.Flags().StringVar(&textName, "name", "", "text name (single document only)")
	textAddCmd.Flags().StringVar(&textURL, "url", "", "fetch a web page instead of a file")
	textAddCmd.Flags().BoolVar(&textEdited, "edited", false, "store as an edited copy")
	textListCmd.Flags().BoolVar(&textChunked, "chunked", false, "only texts with at least one chunk run")
	textListCmd.Flags().BoolVar(&textUnchunked, "unchunked", false, "only texts that were never chunked")
	textListCmd.MarkFlagsMutuallyExclusive("chunked", "unchunked")

	textCmd.AddCommand(textAddCmd)
	textCmd.AddCommand(textListCmd)
	textCmd.AddCommand(textShowCmd)
	textCmd.AddCommand(textDeleteCmd)
	textCmd.AddCommand(textWatchCmd)
	rootCmd.AddCommand(textCmd)
}

func runTextAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, err := resolveDomain(ctx, textDomain)
	if err != nil {
		return err
	}

	if textURL == "" && len(args) == 0 {
		return errors.New("give at least one file or --url")
	}
	if textName != "" && len(args)+boolInt(textURL != "") > 1 {
		return errors.New("--name applies to a single document")
	}

	textType := domain.TextTypeOriginal
	if textEdited {
		textType = domain.TextTypeEdited
	}

	if textURL != "" {
		text, err := libraryService.ExtractAndSave(ctx, d.ID, domain.Source{URL: textURL}, textName, textType)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", textURL, err)
		}
		printAdded(cmd, text)
	}

	for _, path := range args {
		text, err := addFile(ctx, d.ID, path, textType)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", path, err)
		}
		printAdded(cmd, text)
	}
	return nil
}

func addFile(ctx context.Context, domainID, path, textType string) (*domain.ExtractedText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return libraryService.ExtractAndSave(ctx, domainID,
		domain.Source{Name: filepath.Base(path), Reader: f}, textName, textType)
}

func printAdded(cmd *cobra.Command, text *domain.ExtractedText) {
	cmd.Printf("Added %s (%s, %d characters)\n", text.Name, text.ID, len([]rune(text.Content)))
}

func runTextList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	d, err := resolveDomain(ctx, textDomain)
	if err != nil {
		return err
	}

	var texts []domain.TextSummary
	switch {
	case textChunked || textUnchunked:
		if pipelineService == nil {
			return errors.New("pipeline service not configured")
		}
		if textChunked {
			texts, err = pipelineService.ListChunkedTexts(ctx, d.ID)
		} else {
			texts, err = pipelineService.ListUnchunkedTexts(ctx, d.ID)
		}
	default:
		texts, err = libraryService.ListTexts(ctx, d.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to list texts: %w", err)
	}

	if len(texts) == 0 {
		cmd.Printf("No texts in domain %s\n", d.Name)
		return nil
	}

	cmd.Printf("Texts in %s:\n\n", d.Name)
	for i := range texts {
		cmd.Printf("  %s [%s]\n", texts[i].Name, texts[i].Type)
		cmd.Printf("    ID:     %s\n", texts[i].ID)
		if texts[i].OriginalName != "" {
			cmd.Printf("    From:   %s\n", texts[i].OriginalName)
		}
		cmd.Printf("    Added:  %s\n", texts[i].CreatedAt.Local().Format(timeFormat))
	}
	cmd.Printf("\nTotal: %d texts\n", len(texts))
	return nil
}

func runTextShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	text, err := libraryService.GetText(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get text: %w", err)
	}

	cmd.Println(text.Content)
	return nil
}

func runTextDelete(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	if err := libraryService.DeleteTexts(context.Background(), args); err != nil {
		return fmt.Errorf("failed to delete texts: %w", err)
	}

	cmd.Printf("Deleted %d texts\n", len(args))
	return nil
}

func runTextWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := resolveDomain(ctx, textDomain)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for %s (Ctrl+C to stop)\n", args[0], d.Name)
	err = libraryService.WatchFolder(ctx, d.ID, args[0], func(text *domain.ExtractedText, err error) {
		if err != nil {
			cmd.PrintErrf("  skipped: %v\n", err)
			return
		}
		printAdded(cmd, text)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
