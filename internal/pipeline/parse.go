// internal/pipeline/parse.go

// Package pipeline contains the pure data transformations of the
// monitoring pipeline: field parsing, record normalization and schema
// mapping. Nothing in this package performs I/O.
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// PriceFormat selects the decimal convention used when parsing prices.
type PriceFormat int

const (
	// PriceFormatAuto takes the first numeric run and treats a comma as
	// the decimal separator.
	PriceFormatAuto PriceFormat = iota

	// PriceFormatCommaDecimal assumes "." thousands and "," decimal,
	// the convention of the reference (Turkish) deployment.
	PriceFormatCommaDecimal

	// PriceFormatDotDecimal assumes "," thousands and "." decimal.
	PriceFormatDotDecimal
)

// ParsePriceFormat maps a config string to a PriceFormat.
func ParsePriceFormat(s string) PriceFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comma_decimal":
		return PriceFormatCommaDecimal
	case "dot_decimal":
		return PriceFormatDotDecimal
	default:
		return PriceFormatAuto
	}
}

var (
	numericRunRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)
	dotRunRe     = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

// ParsePrice extracts a numeric price from free text. Absence of a
// parseable number is a normal outcome and yields 0, never an error.
//
// With PriceFormatCommaDecimal both separators are interpreted under the
// "." thousands / "," decimal convention; otherwise the first numeric
// run wins and a comma inside it is read as the decimal separator.
func ParsePrice(text string, format PriceFormat) float64 {
	if text == "" {
		return 0
	}

	// Separators are rewritten over the whole text first, then the
	// first numeric run wins. Extra numbers later in the text are
	// ignored.
	var run string
	switch format {
	case PriceFormatCommaDecimal:
		cleaned := strings.ReplaceAll(text, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		run = dotRunRe.FindString(cleaned)
	case PriceFormatDotDecimal:
		cleaned := strings.ReplaceAll(text, ",", "")
		run = dotRunRe.FindString(cleaned)
	default:
		run = numericRunRe.FindString(text)
		run = strings.ReplaceAll(run, ",", ".")
	}
	if run == "" {
		return 0
	}

	value, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return 0
	}
	return value
}

// currencySymbols is scanned in priority order of declaration; the
// first symbol found in the text wins.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"₺", "TRY"},
	{"€", "EUR"},
	{"$", "USD"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// currencyTokens is the whole-token fallback scan, also in priority
// order. "TL" is the colloquial abbreviation for Turkish lira.
var currencyTokens = []struct {
	token string
	code  string
}{
	{"TRY", "TRY"},
	{"TL", "TRY"},
	{"EUR", "EUR"},
	{"USD", "USD"},
	{"GBP", "GBP"},
}

var currencyTokenRe = regexp.MustCompile(`\b[A-Z]{2,3}\b`)

// DetectCurrency resolves a 3-letter currency code from price text.
// Symbols are checked first, then whole-token codes; the fallback code
// is returned when nothing matches. No locale inference beyond this.
func DetectCurrency(text, fallback string) string {
	if text == "" {
		return fallback
	}

	for _, entry := range currencySymbols {
		if strings.Contains(text, entry.symbol) {
			return entry.code
		}
	}

	tokens := currencyTokenRe.FindAllString(text, -1)
	for _, entry := range currencyTokens {
		for _, token := range tokens {
			if token != entry.token {
				continue
			}
			// Validate against the ISO 4217 table before trusting it.
			if unit, err := currency.ParseISO(entry.code); err == nil {
				return unit.String()
			}
			return entry.code
		}
	}

	return fallback
}

// DefaultIDDigits is the digit count of the reference deployment's
// product ids (LEGO set numbers).
const DefaultIDDigits = 5

// NumericIDPattern compiles the matcher for ids of the given digit
// count. Callers should compile once and reuse.
func NumericIDPattern(digits int) (*regexp.Regexp, error) {
	if digits < 1 {
		return nil, fmt.Errorf("id digit count must be positive, got %d", digits)
	}
	return regexp.Compile(fmt.Sprintf(`[0-9]{%d}`, digits))
}

// ExtractNumericID returns the first numeric id found in the text, or
// ok=false when none is present.
func ExtractNumericID(text string, pattern *regexp.Regexp) (string, bool) {
	if text == "" || pattern == nil {
		return "", false
	}
	match := pattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}
