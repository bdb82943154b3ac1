package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

var exportLimit int

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export matching pages to the knowledge base",
	Long: `Runs one export: searches the wiki with the given CQL query,
converts every matching page to Markdown, filters attachments, and
uploads everything into a knowledge-base container named after the
pages' space.

The query is constrained to pages; a raw query that restricts the
content kind to something else is kept as written and reported as a
warning, so zero results are then expected.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVarP(&exportLimit, "limit", "n", 100, "maximum number of pages to export")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	stats := exportService.Statistics()
	mode := "individual"
	if stats.BatchUpload {
		mode = fmt.Sprintf("batch (max %d items)", stats.MaxBatchItems)
	}
	cmd.Printf("Exporting %q (limit %d, %s upload, %d workers)...\n",
		args[0], exportLimit, mode, stats.Workers)

	outcome, err := exportService.RunExport(context.Background(), args[0], exportLimit)
	if err != nil {
		if outcome != nil {
			printOutcome(cmd, outcome)
		}
		return fmt.Errorf("export failed: %w", err)
	}

	printOutcome(cmd, outcome)
	if !outcome.Clean() {
		return fmt.Errorf("export finished with %d failed item(s)", outcome.Failed)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, outcome *domain.RunOutcome) {
	if outcome.Warning != "" {
		cmd.Printf("Warning: %s\n", outcome.Warning)
	}
	if outcome.ContainerName != "" {
		cmd.Printf("Container: %s (%s)\n", outcome.ContainerName, outcome.ContainerID)
	}
	cmd.Printf("Run %s: %s\n", outcome.RunID, outcome.Summary())

	if len(outcome.Rejections) > 0 {
		cmd.Println("Rejected attachments:")
		for _, r := range outcome.Rejections {
			cmd.Printf("  - %s: %s\n", r.Filename, r.Reason)
		}
	}
	if len(outcome.Failures) > 0 {
		cmd.Println("Failed items:")
		for _, f := range outcome.Failures {
			cmd.Printf("  - %s (%s, %d attempt(s)): %v\n", f.Name, f.State, f.Attempts, f.Err)
		}
	}
}
