package netbox

import (
	"fmt"
	"strings"
)

// Config holds configuration for the NetBox API client.
type Config struct {
	// URL is the NetBox instance base URL.
	URL string `mapstructure:"url" default:"http://localhost:8000"`
	// Token is the API bearer token.
	Token string `mapstructure:"token" default:""`
	// VerifySSL toggles TLS certificate verification.
	VerifySSL bool `mapstructure:"verify_ssl" default:"true"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxRetries is the number of retry attempts after the first try.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// BaseDelayMS is the initial backoff delay in milliseconds.
	BaseDelayMS int `mapstructure:"base_delay_ms" default:"500"`
	// MaxDelayMS caps the backoff delay in milliseconds.
	MaxDelayMS int `mapstructure:"max_delay_ms" default:"30000"`
	// PageSize is the limit used for paginated list requests.
	PageSize int `mapstructure:"page_size" default:"250"`
}

// Validate checks the client configuration before any I/O happens.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("netbox: url must start with http:// or https://, got %q", c.URL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("netbox: timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("netbox: max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.BaseDelayMS <= 0 {
		return fmt.Errorf("netbox: base_delay_ms must be positive, got %d", c.BaseDelayMS)
	}
	if c.MaxDelayMS < c.BaseDelayMS {
		return fmt.Errorf("netbox: max_delay_ms (%d) must not be below base_delay_ms (%d)", c.MaxDelayMS, c.BaseDelayMS)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("netbox: page_size must be positive, got %d", c.PageSize)
	}
	return nil
}
