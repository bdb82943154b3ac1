package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	cfgfile "github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/config/file"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the wiki source, the knowledge-base destination,
and export tunables.

Use 'settings source' and 'settings destination' to configure endpoints
and credentials interactively, or 'settings set' for individual keys.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a single configuration value by its dotted key, e.g.

  pagesync settings set export.workers 8
  pagesync settings set export.allowed_extensions md,pdf,txt
  pagesync settings set export.batch_upload false`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Configure the wiki source",
	Long:  `Configure the source wiki's base URL and API token.`,
	RunE:  runSettingsSource,
}

var settingsDestinationCmd = &cobra.Command{
	Use:   "destination",
	Short: "Configure the knowledge-base destination",
	Long:  `Configure the destination service's base URL and API key.`,
	RunE:  runSettingsDestination,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSourceCmd)
	settingsCmd.AddCommand(settingsDestinationCmd)
	rootCmd.AddCommand(settingsCmd)
}

// Keys that carry a non-string value, so 'settings set' can store the
// right TOML type.
var (
	intKeys = map[string]bool{
		cfgfile.KeySearchPageSize:    true,
		cfgfile.KeyMaxAttachmentSize: true,
		cfgfile.KeyMaxBatchItems:     true,
		cfgfile.KeyWorkers:           true,
		cfgfile.KeyRequestTimeout:    true,
		cfgfile.KeyRetryMaxBackoff:   true,
		cfgfile.KeyRetryMaxAttempts:  true,
	}
	boolKeys = map[string]bool{
		cfgfile.KeyBatchUpload: true,
	}
	floatKeys = map[string]bool{
		cfgfile.KeyRetryBackoffFactor: true,
	}
	sliceKeys = map[string]bool{
		cfgfile.KeyAllowedExtensions: true,
		cfgfile.KeyMetadataFields:    true,
	}
	intSliceKeys = map[string]bool{
		cfgfile.KeyRetryStatusCodes: true,
	}
)

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	s := configStore.Settings()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Base URL: %s\n", orNotSet(s.SourceBaseURL))
	cmd.Printf("  Token: %s\n", maskSecret(s.SourceToken))
	cmd.Println()

	cmd.Println("[Destination]")
	cmd.Printf("  Base URL: %s\n", orNotSet(s.DestinationBaseURL))
	cmd.Printf("  API Key: %s\n", maskSecret(s.DestinationAPIKey))
	cmd.Println()

	cmd.Println("[Export]")
	cmd.Printf("  Search page size: %d\n", s.SearchPageSize)
	cmd.Printf("  Allowed extensions: %s\n", strings.Join(s.AllowedExtensions, ", "))
	cmd.Printf("  Max attachment size: %d bytes\n", s.MaxAttachmentSize)
	cmd.Printf("  Batch upload: %t (max %d items)\n", s.BatchUpload, s.MaxBatchItems)
	cmd.Printf("  Workers: %d\n", s.Workers)
	cmd.Printf("  Metadata fields: %s\n", strings.Join(s.MetadataFields, ", "))
	cmd.Printf("  Request timeout: %s\n", s.RequestTimeout)
	cmd.Println()

	cmd.Println("[Retry]")
	cmd.Printf("  Max attempts: %d\n", s.Retry.MaxAttempts)
	cmd.Printf("  Backoff factor: %g (max %s)\n", s.Retry.BackoffFactor, s.Retry.MaxBackoff)
	cmd.Printf("  Retryable statuses: %v\n", s.Retry.RetryableStatusCodes)
	cmd.Println()

	if err := s.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'pagesync settings source' and 'pagesync settings destination' to finish setup.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	cmd.Printf("\nConfig file: %s\n", configStore.Path())
	return nil
}

func runSettingsSet(_ *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	value, err := parseSettingValue(key, raw)
	if err != nil {
		return err
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// parseSettingValue converts the raw CLI string into the value type the
// key expects.
func parseSettingValue(key, raw string) (any, error) {
	switch {
	case intKeys[key]:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", key, raw)
		}
		return v, nil
	case boolKeys[key]:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, raw)
		}
		return v, nil
	case floatKeys[key]:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", key, raw)
		}
		return v, nil
	case sliceKeys[key]:
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		return values, nil
	case intSliceKeys[key]:
		parts := strings.Split(raw, ",")
		values := make([]int64, 0, len(parts))
		for _, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s expects comma-separated integers, got %q", key, raw)
			}
			values = append(values, v)
		}
		return values, nil
	default:
		return raw, nil
	}
}

func runSettingsSource(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Print("Wiki base URL: ")
	baseURL := readLine(reader)
	if baseURL == "" {
		return errors.New("base URL is required")
	}

	cmd.Print("API token: ")
	token := readPassword()
	cmd.Println()

	if err := configStore.Set(cfgfile.KeySourceBaseURL, baseURL); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	if token != "" {
		if err := configStore.Set(cfgfile.KeySourceToken, token); err != nil {
			return fmt.Errorf("failed to save setting: %w", err)
		}
	}

	cmd.Println("Source configured.")
	return nil
}

func runSettingsDestination(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Print("Knowledge-base base URL: ")
	baseURL := readLine(reader)
	if baseURL == "" {
		return errors.New("base URL is required")
	}

	cmd.Print("API key: ")
	apiKey := readPassword()
	cmd.Println()

	if err := configStore.Set(cfgfile.KeyDestinationBaseURL, baseURL); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	if apiKey != "" {
		if err := configStore.Set(cfgfile.KeyDestinationAPIKey, apiKey); err != nil {
			return fmt.Errorf("failed to save setting: %w", err)
		}
	}

	cmd.Println("Destination configured.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
