package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dawpresence/internal/catalog"
	"dawpresence/internal/fileutil"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the DAW catalog",
	}

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recognized DAWs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, skipped, err := catalog.Read(cfg.Paths.CatalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, cat.Len())
			for _, entry := range cat.Entries() {
				rows = append(rows, []string{entry.ProcessName, entry.DisplayText, entry.ClientID, entry.TitleRegex})
			}
			fmt.Fprint(out, renderTable([]string{"Process", "Display", "Client ID", "Title pattern"}, rows, nil))
			if skipped > 0 {
				fmt.Fprintf(out, "Skipped %d entries without a ProcessName\n", skipped)
			}
			return nil
		},
	})

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the catalog for entries that can never match",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, skipped, err := catalog.Read(cfg.Paths.CatalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog path: %s\n", cfg.Paths.CatalogPath)
			problems := cat.Validate()
			for _, problem := range problems {
				fmt.Fprintf(out, "  - %v\n", problem)
			}
			if skipped > 0 {
				fmt.Fprintf(out, "  - %d entries without a ProcessName are ignored\n", skipped)
			}
			if len(problems) > 0 {
				return fmt.Errorf("catalog has %d problem(s)", len(problems))
			}
			fmt.Fprintf(out, "Catalog valid (%d entries)\n", cat.Len())
			return nil
		},
	})

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog with a validated daws.json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := args[0]
			cat, _, err := catalog.Read(source)
			if err != nil {
				return err
			}
			if problems := cat.Validate(); len(problems) > 0 {
				return fmt.Errorf("refusing to import %s: %d problem(s), first: %v", source, len(problems), problems[0])
			}
			if err := fileutil.CopyFileVerified(source, cfg.Paths.CatalogPath); err != nil {
				return fmt.Errorf("import catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries into %s\n", cat.Len(), cfg.Paths.CatalogPath)
			fmt.Fprintln(cmd.OutOrStdout(), "Restart the daemon to load the new catalog")
			return nil
		},
	})

	return catalogCmd
}
