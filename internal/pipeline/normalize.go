// internal/pipeline/normalize.go
package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	restrictedRe = regexp.MustCompile(`[^\w\s\-.,]`)
)

// CleanText collapses whitespace and strips everything outside word
// characters, whitespace, hyphen, period and comma.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = restrictedRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// SynthesizeID derives a stable id from name and price. Identical
// inputs always yield the same id, which keeps re-runs over unchanged
// data idempotent.
func SynthesizeID(name string, price interface{}) string {
	sum := md5.Sum([]byte(name + priceKey(price)))
	return hex.EncodeToString(sum[:])
}

// priceKey renders a price value into a stable string form for hashing.
func priceKey(price interface{}) string {
	switch v := price.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Normalizer coerces raw extracted records into the fixed field set.
type Normalizer struct {
	// ExpectedFields is the exact field set of every output record
	// (timestamp is always added on top).
	ExpectedFields []string

	// PriceFormat governs parsing of textual price values.
	PriceFormat PriceFormat

	// Now supplies the collection instant; defaults to time.Now.
	Now func() time.Time
}

// NewNormalizer creates a normalizer for the given field set.
func NewNormalizer(expectedFields []string, format PriceFormat) *Normalizer {
	return &Normalizer{
		ExpectedFields: expectedFields,
		PriceFormat:    format,
		Now:            time.Now,
	}
}

// Normalize maps each raw record onto the expected field set. Missing
// fields become explicit nils rather than being omitted; names are
// cleaned, textual prices parsed, absent ids synthesized and the
// timestamp always overwritten with the normalization instant.
func (n *Normalizer) Normalize(records []map[string]interface{}) []map[string]interface{} {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}

	normalized := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		out := make(map[string]interface{}, len(n.ExpectedFields)+1)
		for _, field := range n.ExpectedFields {
			if value, ok := record[field]; ok {
				out[field] = value
			} else {
				out[field] = nil
			}
		}

		if name, ok := out["name"].(string); ok && name != "" {
			out["name"] = CleanText(name)
		}

		if priceText, ok := out["price"].(string); ok {
			out["price"] = ParsePrice(priceText, n.PriceFormat)
		}

		if !hasValue(out["id"]) {
			name, _ := out["name"].(string)
			out["id"] = SynthesizeID(name, out["price"])
		}

		out["timestamp"] = now().UTC()
		normalized = append(normalized, out)
	}
	return normalized
}

// hasValue reports whether a field carries a usable, non-empty value.
func hasValue(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	default:
		return true
	}
}
