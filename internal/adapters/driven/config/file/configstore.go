package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Configuration keys, dot-notation over TOML sections.
const (
	KeySourceBaseURL      = "source.base_url"
	KeySourceToken        = "source.token"
	KeyDestinationBaseURL = "destination.base_url"
	KeyDestinationAPIKey  = "destination.api_key"

	KeySearchPageSize    = "export.search_page_size"
	KeyAllowedExtensions = "export.allowed_extensions"
	KeyMaxAttachmentSize = "export.max_attachment_size"
	KeyBatchUpload       = "export.batch_upload"
	KeyMaxBatchItems     = "export.max_batch_items"
	KeyWorkers           = "export.workers"
	KeyMetadataFields    = "export.metadata_fields"
	KeyRequestTimeout    = "export.request_timeout_seconds"

	KeyRetryBackoffFactor = "retry.backoff_factor"
	KeyRetryMaxBackoff    = "retry.max_backoff_seconds"
	KeyRetryMaxAttempts   = "retry.max_attempts"
	KeyRetryStatusCodes   = "retry.status_codes"
)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in a TOML file within the pagesync config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.pagesync/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".pagesync")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	// Load existing data if file exists
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Settings assembles the run settings, starting from defaults and
// overriding with every key present in the file.
func (s *ConfigStore) Settings() domain.ExportSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.DefaultExportSettings()
	out.SourceBaseURL = s.getString(KeySourceBaseURL, out.SourceBaseURL)
	out.SourceToken = s.getString(KeySourceToken, out.SourceToken)
	out.DestinationBaseURL = s.getString(KeyDestinationBaseURL, out.DestinationBaseURL)
	out.DestinationAPIKey = s.getString(KeyDestinationAPIKey, out.DestinationAPIKey)

	out.SearchPageSize = s.getInt(KeySearchPageSize, out.SearchPageSize)
	out.AllowedExtensions = s.getStringSlice(KeyAllowedExtensions, out.AllowedExtensions)
	out.MaxAttachmentSize = s.getInt64(KeyMaxAttachmentSize, out.MaxAttachmentSize)
	out.BatchUpload = s.getBool(KeyBatchUpload, out.BatchUpload)
	out.MaxBatchItems = s.getInt(KeyMaxBatchItems, out.MaxBatchItems)
	out.Workers = s.getInt(KeyWorkers, out.Workers)
	out.MetadataFields = s.getStringSlice(KeyMetadataFields, out.MetadataFields)
	if secs := s.getInt(KeyRequestTimeout, 0); secs > 0 {
		out.RequestTimeout = time.Duration(secs) * time.Second
	}

	out.Retry.BackoffFactor = s.getFloat(KeyRetryBackoffFactor, out.Retry.BackoffFactor)
	if secs := s.getInt(KeyRetryMaxBackoff, 0); secs > 0 {
		out.Retry.MaxBackoff = time.Duration(secs) * time.Second
	}
	out.Retry.MaxAttempts = s.getInt(KeyRetryMaxAttempts, out.Retry.MaxAttempts)
	out.Retry.RetryableStatusCodes = s.getIntSlice(KeyRetryStatusCodes, out.Retry.RetryableStatusCodes)

	return out
}

// getString retrieves a string value (caller must hold lock).
func (s *ConfigStore) getString(key, fallback string) string {
	if v, ok := s.data[key].(string); ok {
		return v
	}
	return fallback
}

// getInt retrieves an integer value (caller must hold lock).
// TOML integers are parsed as int64.
func (s *ConfigStore) getInt(key string, fallback int) int {
	switch v := s.data[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// getInt64 retrieves a 64-bit integer value (caller must hold lock).
func (s *ConfigStore) getInt64(key string, fallback int64) int64 {
	switch v := s.data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return fallback
	}
}

// getFloat retrieves a float value (caller must hold lock).
// TOML reads a bare "2" as an integer, so both shapes are accepted.
func (s *ConfigStore) getFloat(key string, fallback float64) float64 {
	switch v := s.data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// getBool retrieves a boolean value (caller must hold lock).
func (s *ConfigStore) getBool(key string, fallback bool) bool {
	if v, ok := s.data[key].(bool); ok {
		return v
	}
	return fallback
}

// getStringSlice retrieves a string slice value (caller must hold lock).
// TOML arrays are parsed as []any.
func (s *ConfigStore) getStringSlice(key string, fallback []string) []string {
	switch v := s.data[key].(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return fallback
	}
}

// getIntSlice retrieves an integer slice value (caller must hold lock).
func (s *ConfigStore) getIntSlice(key string, fallback []int) []int {
	switch v := s.data[key].(type) {
	case []int64:
		result := make([]int, 0, len(v))
		for _, n := range v {
			result = append(result, int(n))
		}
		return result
	case []any:
		result := make([]int, 0, len(v))
		for _, item := range v {
			if n, ok := item.(int64); ok {
				result = append(result, int(n))
			}
		}
		return result
	default:
		return fallback
	}
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(unflattenMap(s.data))
	if err != nil {
		return err
	}

	// Write with restricted permissions - the file holds credentials
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	// Flatten nested maps into dot-notation keys for easier access
	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			// Recursively flatten nested maps
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// unflattenMap is the inverse of flattenMap, so the persisted TOML
// keeps its [source], [destination], [export] and [retry] sections.
func unflattenMap(m map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		node := result
		rest := key
		for {
			dot := strings.IndexByte(rest, '.')
			if dot < 0 {
				node[rest] = value
				break
			}
			section := rest[:dot]
			child, ok := node[section].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[section] = child
			}
			node = child
			rest = rest[dot+1:]
		}
	}

	return result
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
