// Command pagesync exports wiki pages found by a CQL query into a
// knowledge-base service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/config/file"
	"github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/destination/openwebui"
	"github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/pagesync-labs/pagesync-cli/internal/adapters/driving/cli"
	"github.com/pagesync-labs/pagesync-cli/internal/connectors/confluence"
	"github.com/pagesync-labs/pagesync-cli/internal/core/services"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	cli.SetConfigStore(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	runStore := store.RunStore()
	cli.SetRunHistory(services.NewRunHistoryService(runStore))

	// The export pipeline needs endpoints and credentials; settings,
	// runs and version must keep working before those are configured.
	settings := configStore.Settings()
	if err := settings.Validate(); err == nil {
		ctx := context.Background()

		wiki, err := confluence.NewClient(ctx, confluence.ConfigFromSettings(settings))
		if err != nil {
			return fmt.Errorf("configuring wiki client: %w", err)
		}
		kb, err := openwebui.NewClient(ctx, openwebui.ConfigFromSettings(settings))
		if err != nil {
			return fmt.Errorf("configuring knowledge-base client: %w", err)
		}

		cli.SetExportService(services.NewExportOrchestrator(
			settings,
			confluence.NewSearchGateway(wiki),
			confluence.NewContentSource(wiki),
			kb,
			runStore,
		))
	}

	return cli.Execute()
}
