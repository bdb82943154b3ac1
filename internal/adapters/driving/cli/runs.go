package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded export runs",
	Long:  `Lists past export runs with their queries and outcome counts, most recent first.`,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if runHistory == nil {
		return errors.New("run history not configured")
	}

	runs, err := runHistory.Runs(context.Background(), runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs failed: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		cmd.Printf("%s  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID)
		cmd.Printf("    query: %s\n", r.Query.Raw)
		if r.ContainerName != "" {
			cmd.Printf("    container: %s\n", r.ContainerName)
		}
		cmd.Printf("    %s\n", r.Summary())
		if r.Warning != "" {
			cmd.Printf("    warning: %s\n", r.Warning)
		}
	}
	return nil
}
