package confluence

import (
	"fmt"
	"strings"
	"time"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds connector settings.
type Config struct {
	// BaseURL is the Confluence instance root, without a trailing slash.
	BaseURL string

	// Token is the API token sent as a bearer credential.
	Token string

	// Timeout bounds every HTTP request.
	Timeout time.Duration
}

// ConfigFromSettings derives the connector config from run settings.
func ConfigFromSettings(s domain.ExportSettings) Config {
	return Config{
		BaseURL: s.SourceBaseURL,
		Token:   s.SourceToken,
		Timeout: s.RequestTimeout,
	}
}

// Validate checks the config can reach an instance.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: confluence base URL is required", domain.ErrInvalidInput)
	}
	return nil
}

func (c Config) normalised() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
