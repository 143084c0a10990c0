// Package config holds the dashboard's process configuration.
package config

import (
	"fmt"
	"strings"
)

// DefaultSourceBaseURL is where the cleaned EJI CSVs are published.
const DefaultSourceBaseURL = "https://github.com/rileycochrell/rc-EJI-Visualization-NM-3try/raw/refs/heads/main/data"

// Config contains process configuration.
type Config struct {
	// DataDir holds downloaded CSVs, the DuckDB file and the log.
	DataDir string `koanf:"data_dir"`

	// SourceBaseURL is the root of the {year}/clean/*.csv layout.
	SourceBaseURL string `koanf:"source_base_url"`

	// Offline forbids network downloads; only files already in DataDir are used.
	Offline bool `koanf:"offline"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address for serve, e.g. ":3000".
	Addr string `koanf:"addr"`

	// HighlightThreshold flags table rows with any metric at or above it.
	HighlightThreshold float64 `koanf:"highlight_threshold"`

	// RequestTimeoutSec bounds each HTTP request and data download.
	RequestTimeoutSec int `koanf:"request_timeout_sec"`

	// AnthropicModel is used by ask and the comparison narrator.
	AnthropicModel string `koanf:"anthropic_model"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:            "tmpdata/",
		SourceBaseURL:      DefaultSourceBaseURL,
		LogLevel:           "info",
		Addr:               ":3000",
		HighlightThreshold: 0.76,
		RequestTimeoutSec:  60,
		AnthropicModel:     "claude-haiku-4-5",
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.SourceBaseURL == "":
		return fmt.Errorf("%w: source_base_url must not be empty", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HighlightThreshold <= 0 || c.HighlightThreshold > 1:
		return fmt.Errorf("%w: highlight_threshold must be in (0, 1], got %v", ErrInvalidConfig, c.HighlightThreshold)
	case c.RequestTimeoutSec <= 0:
		return fmt.Errorf("%w: request_timeout_sec must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
