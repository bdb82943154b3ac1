// Package cli implements the command-line driving adapter.
// Commands hold no business logic; they parse input, call driving
// ports, and render outcomes.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driving"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired in by main before Execute.
var (
	exportService driving.ExportService
	runHistory    driving.RunHistory
	configStore   driven.ConfigStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pagesync",
	Short: "Sync wiki pages into a knowledge base",
	Long: `pagesync finds wiki pages with a CQL query and uploads them,
with their attachments, into a knowledge-base container.

Pages are converted to Markdown files with provenance front matter;
attachments pass a local extension and size filter before upload.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// SetExportService wires the export pipeline into the CLI.
func SetExportService(s driving.ExportService) {
	exportService = s
}

// SetRunHistory wires the run history reader into the CLI.
func SetRunHistory(h driving.RunHistory) {
	runHistory = h
}

// SetConfigStore wires the configuration store into the CLI.
func SetConfigStore(s driven.ConfigStore) {
	configStore = s
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
