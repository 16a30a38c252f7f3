package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage domains",
	Long:  `Domains group related texts. Retrieval and chat always search one domain.`,
}

var domainCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomainCreate,
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains",
	Args:  cobra.NoArgs,
	RunE:  runDomainList,
}

var domainRenameCmd = &cobra.Command{
	Use:   "rename [domain] [new-name]",
	Short: "Rename a domain",
	Args:  cobra.ExactArgs(2),
	RunE:  runDomainRename,
}

var domainDeleteCmd = &cobra.Command{
	Use:   "delete [domain]",
	Short: "Delete an empty domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomainDelete,
}

func init() {
	domainCmd.AddCommand(domainCreateCmd)
	domainCmd.AddCommand(domainListCmd)
	domainCmd.AddCommand(domainRenameCmd)
	domainCmd.AddCommand(domainDeleteCmd)
	rootCmd.AddCommand(domainCmd)
}

func runDomainCreate(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	d, err := libraryService.CreateDomain(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}

	cmd.Printf("Created domain %s (%s)\n", d.Name, d.ID)
	return nil
}

func runDomainList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	domains, err := libraryService.ListDomains(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	if len(domains) == 0 {
		cmd.Println("No domains. Create one with: ragbench domain create <name>")
		return nil
	}

	cmd.Println("Domains:")
	cmd.Println()
	for i := range domains {
		cmd.Printf("  %s\n", domains[i].Name)
		cmd.Printf("    ID:      %s\n", domains[i].ID)
		cmd.Printf("    Created: %s\n", domains[i].CreatedAt.Local().Format(timeFormat))
	}
	return nil
}

func runDomainRename(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, err := resolveDomain(ctx, args[0])
	if err != nil {
		return err
	}

	if err := libraryService.RenameDomain(ctx, d.ID, args[1]); err != nil {
		return fmt.Errorf("failed to rename domain: %w", err)
	}

	cmd.Printf("Renamed %s to %s\n", d.Name, args[1])
	return nil
}

func runDomainDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	d, err := resolveDomain(ctx, args[0])
	if err != nil {
		return err
	}

	if err := libraryService.DeleteDomain(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to delete domain (delete its texts first): %w", err)
	}

	cmd.Printf("Deleted domain %s\n", d.Name)
	return nil
}
