// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// SaveToFile saves configuration to a YAML file.
func SaveToFile(cfg *Config, filename string) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %v", err)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %v", err)
	}

	return nil
}

// expandEnvironmentVariables substitutes ${VAR} references in the raw
// YAML content before parsing.
func expandEnvironmentVariables(content string) string {
	return os.Expand(content, func(key string) string {
		return os.Getenv(key)
	})
}

// applyDefaults fills unset fields with the reference deployment values.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.lego.com.tr"
	}
	if cfg.Selectors.Product == "" {
		cfg.Selectors.Product = ".product-item, .product-card"
	}
	if cfg.Selectors.Name == "" {
		cfg.Selectors.Name = ".product-item__title, .product-name"
	}
	if cfg.Selectors.Price == "" {
		cfg.Selectors.Price = ".product-price, .product-item__price"
	}
	if cfg.Selectors.ID == "" {
		cfg.Selectors.ID = ".product-id, [data-test='product-item-number']"
	}
	if cfg.Selectors.Image == "" {
		cfg.Selectors.Image = ".product-item__image img, .product-image img"
	}
	if cfg.Selectors.Description == "" {
		cfg.Selectors.Description = ".product-item__short-description, .product-description"
	}
	if len(cfg.ExpectedFields) == 0 {
		cfg.ExpectedFields = []string{
			"id", "name", "price", "price_raw", "currency",
			"image_url", "product_url", "availability", "badges",
			"description", "category",
		}
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "TRY"
	}
	if cfg.PriceFormat == "" {
		cfg.PriceFormat = "comma_decimal"
	}
	if cfg.IDPattern.Digits == 0 {
		cfg.IDPattern.Digits = 5
	}
	if cfg.ScrapeIntervalHours == 0 {
		cfg.ScrapeIntervalHours = 6
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 30
	}
	if cfg.Fetch.MaxPages == 0 {
		cfg.Fetch.MaxPages = 5
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = 1
	}
	if len(cfg.Fetch.UserAgents) == 0 {
		cfg.Fetch.UserAgents = []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
		}
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "sqlite"
	}
	if cfg.History.Backend == "sqlite" && cfg.History.Path == "" {
		cfg.History.Path = "data/brickwatch.db"
	}
	if cfg.History.Table == "" {
		cfg.History.Table = "brickwatch"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"json"}
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "data"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8085"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category must be configured")
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category %d: name cannot be empty", i)
		}
		if strings.TrimSpace(cat.URL) == "" {
			return fmt.Errorf("category %q: url cannot be empty", cat.Name)
		}
		if seen[cat.Name] {
			return fmt.Errorf("category %q: duplicate name", cat.Name)
		}
		seen[cat.Name] = true
	}
	if strings.TrimSpace(c.Selectors.Product) == "" {
		return fmt.Errorf("selectors.product cannot be empty")
	}
	switch c.PriceFormat {
	case "comma_decimal", "dot_decimal", "auto":
	default:
		return fmt.Errorf("invalid price_format: %s", c.PriceFormat)
	}
	if c.IDPattern.Digits < 1 {
		return fmt.Errorf("id_pattern.digits must be positive")
	}
	if c.PriceThresholdPercent < 0 {
		return fmt.Errorf("price_threshold_percent cannot be negative")
	}
	switch c.History.Backend {
	case "memory", "sqlite", "postgres", "mysql", "mongo":
	default:
		return fmt.Errorf("invalid history backend: %s", c.History.Backend)
	}
	for _, format := range c.Output.Formats {
		switch format {
		case "json", "csv", "excel":
		default:
			return fmt.Errorf("invalid output format: %s", format)
		}
	}
	return nil
}

// GenerateTemplate returns a starter configuration for the given
// template type.
func GenerateTemplate(templateType string) Config {
	switch templateType {
	case "multi":
		return generateMultiCategoryTemplate()
	default:
		return generateBasicTemplate()
	}
}

func generateBasicTemplate() Config {
	cfg := Config{
		Name:        "lego-architecture-monitor",
		Description: "Track prices for the LEGO Architecture collection",
		Categories: []CategoryConfig{
			{Name: "Architecture", URL: "https://www.lego.com.tr/themes/architecture"},
		},
		PriceThresholdPercent: 5.0,
	}
	applyDefaults(&cfg)
	return cfg
}

func generateMultiCategoryTemplate() Config {
	cfg := generateBasicTemplate()
	cfg.Name = "lego-catalog-monitor"
	cfg.Description = "Track prices across several LEGO collections"
	cfg.Categories = append(cfg.Categories,
		CategoryConfig{Name: "Star Wars", URL: "https://www.lego.com.tr/themes/star-wars"},
		CategoryConfig{Name: "Technic", URL: "https://www.lego.com.tr/themes/technic"},
	)
	return cfg
}
