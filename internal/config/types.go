// internal/config/types.go

// Package config provides configuration types and loading for brickwatch.
// It defines the settings for monitored categories, extraction selectors,
// parsing conventions, snapshot history, report output and the embedded
// status server.
package config

import (
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Config is the main configuration structure for a monitoring deployment.
type Config struct {
	// Name identifies this configuration
	Name string `yaml:"name" json:"name"`

	// Version of the configuration format
	Version string `yaml:"version" json:"version"`

	// Description provides human-readable information about this config
	Description string `yaml:"description" json:"description"`

	// BaseURL resolves relative image and product links
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Categories lists the catalog collections to monitor
	Categories []CategoryConfig `yaml:"categories" json:"categories"`

	// Selectors maps logical field names to CSS selectors
	Selectors types.SelectorConfig `yaml:"selectors" json:"selectors"`

	// ExpectedFields is the fixed field set every normalized record carries
	ExpectedFields []string `yaml:"expected_fields" json:"expected_fields"`

	// DefaultCurrency is used when no currency can be detected
	DefaultCurrency string `yaml:"default_currency" json:"default_currency"`

	// PriceFormat selects the decimal convention: comma_decimal,
	// dot_decimal or auto
	PriceFormat string `yaml:"price_format" json:"price_format"`

	// IDPattern configures numeric id recognition
	IDPattern IDPatternConfig `yaml:"id_pattern" json:"id_pattern"`

	// PriceThresholdPercent filters reported price changes; 0 reports all
	PriceThresholdPercent float64 `yaml:"price_threshold_percent" json:"price_threshold_percent"`

	// ScrapeIntervalHours is the scheduling period for watch mode
	ScrapeIntervalHours int `yaml:"scrape_interval_hours" json:"scrape_interval_hours"`

	// Fetch configures the page fetcher
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// History configures snapshot persistence
	History HistoryConfig `yaml:"history" json:"history"`

	// Output configures report files
	Output OutputConfig `yaml:"output" json:"output"`

	// Server configures the status HTTP server
	Server ServerConfig `yaml:"server" json:"server"`

	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// CategoryConfig identifies one catalog collection.
type CategoryConfig struct {
	// Name is the logical category name, also the history store key
	Name string `yaml:"name" json:"name"`

	// URL is the category listing page
	URL string `yaml:"url" json:"url"`

	// Selectors optionally overrides the global selector set
	Selectors *types.SelectorConfig `yaml:"selectors,omitempty" json:"selectors,omitempty"`
}

// IDPatternConfig configures numeric id recognition. The reference
// deployment monitors LEGO set numbers, which are 5 digits.
type IDPatternConfig struct {
	// Digits is the exact digit count of a numeric product id
	Digits int `yaml:"digits" json:"digits"`
}

// FetchConfig defines page fetch settings.
type FetchConfig struct {
	// TimeoutSeconds bounds a single page request
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// MaxPages limits pagination traversal per category
	MaxPages int `yaml:"max_pages" json:"max_pages"`

	// PageParameter is the query parameter for numbered pagination,
	// "page" when unset
	PageParameter string `yaml:"page_parameter" json:"page_parameter"`

	// RequestsPerSecond limits the request rate
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// UserAgents are rotated across requests
	UserAgents []string `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`

	// Headers are sent with every request
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// HistoryConfig defines snapshot persistence settings.
type HistoryConfig struct {
	// Backend selects the store: sqlite, postgres, mysql, mongo or memory
	Backend string `yaml:"backend" json:"backend"`

	// Path is the database file for the sqlite backend
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// ConnectionString is the DSN for server-backed stores
	ConnectionString string `yaml:"connection_string,omitempty" json:"connection_string,omitempty"`

	// Database is the database name for the mongo backend
	Database string `yaml:"database,omitempty" json:"database,omitempty"`

	// Table is the table prefix for SQL backends
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

// OutputConfig defines report file settings.
type OutputConfig struct {
	// Formats lists report formats to write: json, csv, excel
	Formats []string `yaml:"formats" json:"formats"`

	// Directory is where report and snapshot files are written
	Directory string `yaml:"directory" json:"directory"`
}

// ServerConfig defines the status HTTP server settings.
type ServerConfig struct {
	// Enabled turns the server on in watch mode
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Address is the listen address, e.g. ":8085"
	Address string `yaml:"address" json:"address"`
}

// SelectorsFor returns the selector set for a category, falling back to
// the global selectors when the category has no override.
func (c *Config) SelectorsFor(cat CategoryConfig) types.SelectorConfig {
	if cat.Selectors != nil {
		return *cat.Selectors
	}
	return c.Selectors
}
