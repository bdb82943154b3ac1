package driven

import "github.com/pagesync-labs/pagesync-cli/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
// Settings are loaded once per run; the returned value is a copy and
// mutating it has no effect on the store.
type ConfigStore interface {
	// Settings returns the export settings with defaults applied for
	// any key absent from storage.
	Settings() domain.ExportSettings

	// Set stores a configuration value by dotted key.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
