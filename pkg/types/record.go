// pkg/types/record.go
package types

import (
	"fmt"
	"time"
)

// RecordFromMap builds a ProductRecord from the loosely typed map shape
// used by the extraction and normalization stages. Unknown keys are
// ignored; missing keys leave the zero value in place.
func RecordFromMap(m map[string]interface{}) ProductRecord {
	rec := ProductRecord{
		ID:           stringValue(m["id"]),
		Name:         stringValue(m["name"]),
		Price:        floatValue(m["price"]),
		PriceRaw:     stringValue(m["price_raw"]),
		Currency:     stringValue(m["currency"]),
		ImageURL:     stringValue(m["image_url"]),
		ProductURL:   stringValue(m["product_url"]),
		Availability: stringValue(m["availability"]),
		Description:  stringValue(m["description"]),
		Category:     stringValue(m["category"]),
		Badges:       stringSliceValue(m["badges"]),
	}
	switch ts := m["timestamp"].(type) {
	case time.Time:
		rec.Timestamp = ts
	case string:
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
	}
	return rec
}

// SnapshotFromMaps converts a slice of map records in order.
func SnapshotFromMaps(category string, records []map[string]interface{}) Snapshot {
	snap := Snapshot{
		Category: category,
		Records:  make([]ProductRecord, 0, len(records)),
	}
	for _, m := range records {
		snap.Records = append(snap.Records, RecordFromMap(m))
	}
	return snap
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func stringSliceValue(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, stringValue(item))
		}
		return out
	default:
		return nil
	}
}
