// pkg/types/types.go

// Package types defines the shared data model for brickwatch: product
// records, snapshots, selector configuration and the change report
// produced by each monitoring run.
package types

import (
	"time"
)

// ChangeType classifies the direction of a price movement.
type ChangeType string

const (
	ChangeIncrease ChangeType = "increase"
	ChangeDecrease ChangeType = "decrease"
)

// SelectorConfig maps logical field names to CSS selector strings.
// Comma-joined alternatives are allowed inside each selector. The config
// is supplied per category and never mutated by the pipeline.
type SelectorConfig struct {
	Product     string `yaml:"product" json:"product"`
	Name        string `yaml:"name" json:"name"`
	Price       string `yaml:"price" json:"price"`
	ID          string `yaml:"id" json:"id"`
	Image       string `yaml:"image" json:"image"`
	Description string `yaml:"description" json:"description"`
}

// PageContent is the hand-off payload from the page-fetch collaborator:
// the concatenated HTML of every paginated load for one category.
type PageContent struct {
	CategoryName string `json:"category_name"`
	SourceURL    string `json:"source_url"`
	PagesScraped int    `json:"pages_scraped"`
	HTMLContent  string `json:"html_content"`
}

// ProductRecord is one normalized catalog entry.
type ProductRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	PriceRaw     string    `json:"price_raw,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProductURL   string    `json:"product_url,omitempty"`
	Availability string    `json:"availability,omitempty"`
	Badges       []string  `json:"badges,omitempty"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ComparableFields returns the fields considered by the diff engine's
/// "other changes" pass. Price, ID and Timestamp are excluded: price has
// its own comparison, ID is the join key and Timestamp changes every run.
func (r ProductRecord) ComparableFields() map[string]interface{} {
	return map[string]interface{}{
		"name":         r.Name,
		"price_raw":    r.PriceRaw,
		"currency":     r.Currency,
		"image_url":    r.ImageURL,
		"product_url":  r.ProductURL,
		"availability": r.Availability,
		"badges":       r.Badges,
		"description":  r.Description,
		"category":     r.Category,
	}
}

// Snapshot is the ordered set of records collected for one category at
// one point in time. Order is document order from extraction.
type Snapshot struct {
	Category string          `json:"category,omitempty"`
	Records  []ProductRecord `json:"records"`
}

// IndexByID builds an id lookup over the snapshot. Records without an id
// are skipped; on duplicate ids the first occurrence wins, matching the
// extractor's dedup rule.
func (s Snapshot) IndexByID() map[string]ProductRecord {
	index := make(map[string]ProductRecord, len(s.Records))
	for _, rec := range s.Records {
		if rec.ID == "" {
			continue
		}
		if _, exists := index[rec.ID]; !exists {
			index[rec.ID] = rec
		}
	}
	return index
}

// IDs returns the distinct non-empty ids in snapshot order.
func (s Snapshot) IDs() []string {
	seen := make(map[string]bool, len(s.Records))
	ids := make([]string, 0, len(s.Records))
	for _, rec := range s.Records {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		ids = append(ids, rec.ID)
	}
	return ids
}

// PriceChange describes one product whose price moved between snapshots.
// Computed fresh on every diff run, never persisted by the engine itself.
type PriceChange struct {
	ProductID      string     `json:"product_id"`
	ProductName    string     `json:"product_name"`
	CurrentPrice   float64    `json:"current_price"`
	PreviousPrice  float64    `json:"previous_price"`
	AbsoluteChange float64    `json:"absolute_change"`
	PercentChange  float64    `json:"percent_change"`
	Unbounded      bool       `json:"unbounded,omitempty"`
	ChangeType     ChangeType `json:"change_type"`
}

// NewProduct describes a product seen for the first time.
type NewProduct struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	DetectedAt time.Time `json:"detected_at"`
}

// RemovedProduct describes a product that disappeared from the catalog.
type RemovedProduct struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastPrice float64   `json:"last_price"`
	RemovedAt time.Time `json:"removed_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// FieldChange is a before/after pair for a single field.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// OtherChange collects the non-price field changes for one product.
type OtherChange struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Changes map[string]FieldChange `json:"changes"`
}

// ChangeSummary holds the derived tallies for a change report.
type ChangeSummary struct {
	TotalCurrentProducts    int `json:"total_current_products"`
	TotalHistoricalProducts int `json:"total_historical_products"`
	PriceChangesCount       int `json:"price_changes_count"`
	NewProductsCount        int `json:"new_products_count"`
	RemovedProductsCount    int `json:"removed_products_count"`
	OtherChangesCount       int `json:"other_changes_count"`
	UnchangedCount          int `json:"unchanged_count"`
}

// ChangeReport is the full result of diffing a current snapshot against
// the last persisted one. Ephemeral, one per run.
type ChangeReport struct {
	Category        string           `json:"category,omitempty"`
	ThresholdPct    float64          `json:"threshold_pct"`
	PriceChanges    []PriceChange    `json:"price_changes"`
	NewProducts     []NewProduct     `json:"new_products"`
	RemovedProducts []RemovedProduct `json:"removed_products"`
	OtherChanges    []OtherChange    `json:"other_changes"`
	Summary         ChangeSummary    `json:"summary"`
	Timestamp       time.Time        `json:"timestamp"`
}

// HasChanges reports whether the run detected anything worth notifying.
func (c *ChangeReport) HasChanges() bool {
	return len(c.PriceChanges) > 0 || len(c.NewProducts) > 0 ||
		len(c.RemovedProducts) > 0 || len(c.OtherChanges) > 0
}
