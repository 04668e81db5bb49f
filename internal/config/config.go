package config

import (
	"fmt"
	"net/url"
)

// Config represents the main Lola client configuration
type Config struct {
	// Backend API
	API APIConfig `json:"api" mapstructure:"api"`

	// Data directory (state database, exports, logs)
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Admin tooling
	Admin AdminConfig `json:"admin" mapstructure:"admin"`

	// Session cleanup protocol
	Cleanup CleanupConfig `json:"cleanup" mapstructure:"cleanup"`

	// Local dashboard
	Dashboard DashboardConfig `json:"dashboard" mapstructure:"dashboard"`
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// AdminConfig holds admin command defaults
type AdminConfig struct {
	PerPage int `json:"per_page" mapstructure:"per_page"`
}

// CleanupConfig controls the abandoned-session cleanup protocol
type CleanupConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// DashboardConfig holds the local dashboard server settings
type DashboardConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:5000",
			TimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Admin: AdminConfig{
			PerPage: 20,
		},
		Cleanup: CleanupConfig{
			Enabled: true,
		},
		Dashboard: DashboardConfig{
			Addr: "127.0.0.1:8900",
		},
	}
}

// Validate checks the configuration for values the client cannot run with
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL: %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds cannot be negative")
	}
	if c.Admin.PerPage <= 0 {
		return fmt.Errorf("admin.per_page must be positive")
	}
	return nil
}
