// internal/scraper/strategies.go
package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bkaplan/brickwatch/internal/pipeline"
)

// fieldStrategy is one extraction rule for a field: a pure function
// over a product element. Strategies are tried in declared order and
// the first non-empty result wins; there is no merging across them.
type fieldStrategy struct {
	name    string
	extract func(s *goquery.Selection) (string, bool)
}

// runStrategies applies the strategy list in order.
func runStrategies(s *goquery.Selection, strategies []fieldStrategy) (string, string, bool) {
	for _, strat := range strategies {
		if value, ok := strat.extract(s); ok {
			return value, strat.name, true
		}
	}
	return "", "", false
}

// selectorText extracts the trimmed text of the first match.
func selectorText(selector string) func(*goquery.Selection) (string, bool) {
	return func(s *goquery.Selection) (string, bool) {
		if selector == "" {
			return "", false
		}
		text := strings.TrimSpace(s.Find(selector).First().Text())
		return text, text != ""
	}
}

// selectorAttr extracts the first non-empty attribute among attrs from
// the first match of selector.
func selectorAttr(selector string, attrs ...string) func(*goquery.Selection) (string, bool) {
	return func(s *goquery.Selection) (string, bool) {
		if selector == "" {
			return "", false
		}
		found := s.Find(selector).First()
		for _, attr := range attrs {
			if value, exists := found.Attr(attr); exists && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value), true
			}
		}
		return "", false
	}
}

// nameStrategies builds the fallback chain for the product name:
// explicit selector, title attribute markers, heading tags, then the
// image alt text with the set-number prefix stripped.
func (e *Extractor) nameStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"selector", selectorText(e.selectors.Name)},
		{"title-markers", selectorText("[data-test='product-title'], [data-product-name], .name, .title")},
		{"headings", selectorText("h2, h3, h4")},
		{"image-alt", func(s *goquery.Selection) (string, bool) {
			alt, exists := s.Find("img[alt]").First().Attr("alt")
			if !exists {
				return "", false
			}
			name := e.nameFromAltText(alt)
			return name, name != ""
		}},
	}
}

// priceStrategies: explicit selector, then common price class and data
// attribute patterns.
func (e *Extractor) priceStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"selector", selectorText(e.selectors.Price)},
		{"price-markers", selectorText("[data-test='product-price'], [data-product-price], .price")},
	}
}

// idStrategies: explicit selector, data attributes whose name contains
// item/product/set, numeric id in the product link URL, numeric id in a
// set-number label, numeric id in the image alt text.
func (e *Extractor) idStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"selector", selectorText(e.selectors.ID)},
		{"data-attrs", func(s *goquery.Selection) (string, bool) {
			if len(s.Nodes) == 0 {
				return "", false
			}
			for _, attr := range s.Nodes[0].Attr {
				key := strings.ToLower(attr.Key)
				if !strings.Contains(key, "item") && !strings.Contains(key, "product") && !strings.Contains(key, "set") {
					continue
				}
				if strings.TrimSpace(attr.Val) != "" {
					return strings.TrimSpace(attr.Val), true
				}
			}
			return "", false
		}},
		{"link-url", func(s *goquery.Selection) (string, bool) {
			href, exists := s.Find(productLinkSelector).First().Attr("href")
			if !exists {
				return "", false
			}
			return pipeline.ExtractNumericID(href, e.idPattern)
		}},
		{"number-label", func(s *goquery.Selection) (string, bool) {
			var id string
			s.Find("[data-test='product-number'], .product-number, .set-number").EachWithBreak(func(_ int, label *goquery.Selection) bool {
				if found, ok := pipeline.ExtractNumericID(label.Text(), e.idPattern); ok {
					id = found
					return false
				}
				return true
			})
			return id, id != ""
		}},
		{"image-alt", func(s *goquery.Selection) (string, bool) {
			alt, exists := s.Find("img[alt]").First().Attr("alt")
			if !exists {
				return "", false
			}
			return pipeline.ExtractNumericID(alt, e.idPattern)
		}},
	}
}

// imageStrategies: explicit selector, then common product image
// patterns; lazy-loaded images carry the URL in data-src.
func (e *Extractor) imageStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"selector", selectorAttr(e.selectors.Image, "src", "data-src")},
		{"image-markers", selectorAttr("img[data-test='product-image'], img.product-image, img.main-image", "src", "data-src")},
		{"first-image", selectorAttr("img", "src", "data-src")},
	}
}

func (e *Extractor) descriptionStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"selector", selectorText(e.selectors.Description)},
	}
}

func (e *Extractor) availabilityStrategies() []fieldStrategy {
	return []fieldStrategy{
		{"availability-markers", selectorText("[data-test='product-availability'], .availability, .product-availability")},
	}
}

const (
	productLinkSelector = "a[href*='/products/'], a[href*='/product/']"
	badgeSelector       = ".product-badge, .product-flag, [data-test='product-flag']"
)

// collectBadges gathers all badge texts in document order.
func collectBadges(s *goquery.Selection) []string {
	var badges []string
	s.Find(badgeSelector).Each(func(_ int, badge *goquery.Selection) {
		if text := strings.TrimSpace(badge.Text()); text != "" {
			badges = append(badges, text)
		}
	})
	return badges
}

// productURLOf finds the product detail link, preferring the canonical
// product path over any first anchor.
func productURLOf(s *goquery.Selection) (string, bool) {
	if href, exists := s.Find(productLinkSelector).First().Attr("href"); exists && href != "" {
		return href, true
	}
	if href, exists := s.Find("a[href]").First().Attr("href"); exists && href != "" {
		return href, true
	}
	return "", false
}

// nameFromAltText strips the numeric id prefix, an optional brand token
// and the trailing category suffix from an image alt text, which on the
// reference site reads like "21058 LEGO® Great Pyramid of Giza".
func (e *Extractor) nameFromAltText(alt string) string {
	name := strings.TrimSpace(alt)
	if name == "" {
		return ""
	}
	name = e.altPrefixRe.ReplaceAllString(name, "")
	if e.category != "" {
		name = strings.TrimSuffix(name, " - "+e.category)
	}
	return strings.TrimSpace(name)
}

// altPrefixPattern matches "<id> BRAND® " style alt text prefixes for
// the configured id digit count.
func altPrefixPattern(digits int) *regexp.Regexp {
	return regexp.MustCompile(`^[0-9]{` + strconv.Itoa(digits) + `}\s+(?:\S+®\s+)?`)
}
