package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgfile "github.com/pagesync-labs/pagesync-cli/internal/adapters/driven/config/file"
)

// setupConfigStore wires a temp-dir backed config store.
func setupConfigStore(t *testing.T) *cfgfile.ConfigStore {
	t.Helper()
	store, err := cfgfile.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	old := configStore
	configStore = store
	t.Cleanup(func() { configStore = old })
	return store
}

func TestSettingsCmd_ShowDefaults(t *testing.T) {
	setupConfigStore(t)

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Source]")
	assert.Contains(t, out, "Base URL: (not set)")
	assert.Contains(t, out, "Token: (not set)")
	assert.Contains(t, out, "Batch upload: true (max 20 items)")
	assert.Contains(t, out, "Warning:")
}

func TestSettingsCmd_ShowMasksSecrets(t *testing.T) {
	store := setupConfigStore(t)
	require.NoError(t, store.Set(cfgfile.KeySourceBaseURL, "https://wiki.example.com"))
	require.NoError(t, store.Set(cfgfile.KeySourceToken, "super-secret-token-value"))
	require.NoError(t, store.Set(cfgfile.KeyDestinationBaseURL, "https://kb.example.com"))

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "https://wiki.example.com")
	assert.Contains(t, out, "supe...alue")
	assert.NotContains(t, out, "super-secret-token-value")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_SetString(t *testing.T) {
	store := setupConfigStore(t)

	_, err := execute(t, "settings", "set", cfgfile.KeySourceBaseURL, "https://wiki.example.com")

	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com", store.Settings().SourceBaseURL)
}

func TestSettingsCmd_SetTypedValues(t *testing.T) {
	store := setupConfigStore(t)

	for _, args := range [][]string{
		{"settings", "set", cfgfile.KeyWorkers, "8"},
		{"settings", "set", cfgfile.KeyBatchUpload, "false"},
		{"settings", "set", cfgfile.KeyRetryBackoffFactor, "1.5"},
		{"settings", "set", cfgfile.KeyAllowedExtensions, "md, pdf,txt"},
		{"settings", "set", cfgfile.KeyRetryStatusCodes, "429,503"},
	} {
		_, err := execute(t, args...)
		require.NoError(t, err)
	}

	s := store.Settings()
	assert.Equal(t, 8, s.Workers)
	assert.False(t, s.BatchUpload)
	assert.Equal(t, 1.5, s.Retry.BackoffFactor)
	assert.Equal(t, []string{"md", "pdf", "txt"}, s.AllowedExtensions)
	assert.Equal(t, []int{429, 503}, s.Retry.RetryableStatusCodes)
}

func TestSettingsCmd_SetRejectsBadValues(t *testing.T) {
	setupConfigStore(t)

	_, err := execute(t, "settings", "set", cfgfile.KeyWorkers, "many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects an integer")

	_, err = execute(t, "settings", "set", cfgfile.KeyBatchUpload, "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects true or false")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	old := configStore
	configStore = nil
	defer func() { configStore = old }()

	_, err := execute(t, "settings")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config store not configured")
}

func TestParseSettingValue_UnknownKeyIsString(t *testing.T) {
	v, err := parseSettingValue("custom.key", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd...wxyz", maskSecret("abcdefgh-long-wxyz"))
}
