// Package scraper turns fetched catalog HTML into raw product records.
// Extraction is selector driven: each field is resolved through an
// ordered chain of strategies so that a site redesign degrades into
// missing fields rather than a hard failure.
package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaplan/brickwatch/internal/pipeline"
	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Config carries everything an Extractor needs for one category page.
type Config struct {
	Selectors       types.SelectorConfig
	BaseURL         string
	Category        string
	SourceURL       string
	DefaultCurrency string
	PriceFormat     pipeline.PriceFormat
	IDDigits        int
	Logger          utils.Logger
}

// Extractor extracts product records from listing HTML.
type Extractor struct {
	selectors   types.SelectorConfig
	baseURL     *url.URL
	category    string
	sourceURL   string
	currency    string
	priceFormat pipeline.PriceFormat
	idPattern   *regexp.Regexp
	altPrefixRe *regexp.Regexp
	logger      utils.Logger

	name         []fieldStrategy
	price        []fieldStrategy
	id           []fieldStrategy
	image        []fieldStrategy
	description  []fieldStrategy
	availability []fieldStrategy
}

// New builds an Extractor. The base URL is used to resolve relative
// product and image links; an empty base leaves them as found.
func New(cfg Config) (*Extractor, error) {
	if cfg.Selectors.Product == "" {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "product container selector is required")
	}

	digits := cfg.IDDigits
	if digits <= 0 {
		digits = pipeline.DefaultIDDigits
	}
	idPattern, err := pipeline.NumericIDPattern(digits)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if cfg.BaseURL != "" {
		base, err = url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, utils.WrapError(err, utils.ErrCodeInvalidConfig, "invalid base URL")
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = utils.NewComponentLogger("scraper")
	}

	e := &Extractor{
		selectors:   cfg.Selectors,
		baseURL:     base,
		category:    cfg.Category,
		sourceURL:   cfg.SourceURL,
		currency:    cfg.DefaultCurrency,
		priceFormat: cfg.PriceFormat,
		idPattern:   idPattern,
		altPrefixRe: altPrefixPattern(digits),
		logger:      logger,
	}
	e.name = e.nameStrategies()
	e.price = e.priceStrategies()
	e.id = e.idStrategies()
	e.image = e.imageStrategies()
	e.description = e.descriptionStrategies()
	e.availability = e.availabilityStrategies()
	return e, nil
}

// Extract parses the HTML and returns one raw record per product
// element. A page with no matching containers yields an empty slice,
// not an error; extraction failures on individual elements are logged
// and the element is skipped.
func (e *Extractor) Extract(html string) ([]map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeExtraction, "failed to parse HTML")
	}

	records := make([]map[string]interface{}, 0)
	seen := make(map[string]bool)

	doc.Find(e.selectors.Product).Each(func(index int, s *goquery.Selection) {
		record, err := e.extractOne(s)
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"category": e.category,
				"element":  index,
				"error":    err.Error(),
			}).Warn("skipping product element")
			return
		}
		if record == nil {
			return
		}
		if id, _ := record["id"].(string); id != "" {
			if seen[id] {
				e.logger.WithFields(map[string]interface{}{
					"category": e.category,
					"id":       id,
				}).Debug("duplicate product id, keeping first occurrence")
				return
			}
			seen[id] = true
		}
		records = append(records, record)
	})

	e.logger.WithFields(map[string]interface{}{
		"category": e.category,
		"products": len(records),
	}).Debug("extraction complete")
	return records, nil
}

// extractOne builds the raw record for a single product element.
// Panics from the underlying DOM traversal are contained here so one
// malformed element cannot take down the whole page.
func (e *Extractor) extractOne(s *goquery.Selection) (record map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = utils.NewError(utils.ErrCodeExtraction, fmt.Sprintf("panic during extraction: %v", r))
		}
	}()

	record = map[string]interface{}{
		"category":     e.category,
		"category_url": e.sourceURL,
	}

	name, _, hasName := runStrategies(s, e.name)
	if hasName {
		record["name"] = name
	}

	if priceText, strategy, ok := runStrategies(s, e.price); ok {
		record["price_raw"] = priceText
		record["price"] = pipeline.ParsePrice(priceText, e.priceFormat)
		record["currency"] = pipeline.DetectCurrency(priceText, e.currency)
		if record["price"].(float64) == 0 {
			e.logger.WithFields(map[string]interface{}{
				"category": e.category,
				"strategy": strategy,
				"text":     priceText,
			}).Debug("price text yielded zero")
		}
	} else {
		record["currency"] = e.currency
	}

	id, _, hasID := runStrategies(s, e.id)
	if hasID {
		record["id"] = id
	}
	if !hasName && !hasID {
		// Not recognizably a product; likely a decorative grid cell.
		return nil, nil
	}

	if image, _, ok := runStrategies(s, e.image); ok {
		record["image_url"] = e.resolveURL(image)
	}
	if description, _, ok := runStrategies(s, e.description); ok {
		record["description"] = description
	}
	if availability, _, ok := runStrategies(s, e.availability); ok {
		record["availability"] = availability
	}
	if badges := collectBadges(s); len(badges) > 0 {
		record["badges"] = badges
	}
	if href, ok := productURLOf(s); ok {
		record["product_url"] = e.resolveURL(href)
	}

	return record, nil
}

// resolveURL makes a relative link absolute against the base URL.
func (e *Extractor) resolveURL(raw string) string {
	if e.baseURL == nil || raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return e.baseURL.ResolveReference(ref).String()
}
