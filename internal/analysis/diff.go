// Package analysis compares catalog snapshots. The result of a
// comparison is a ChangeReport: products present in both snapshots are
// checked for price movement and for changes in the other comparable
// fields, the rest land in new or removed. Products identical on both
// sides are counted as unchanged but not listed.
package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/bkaplan/brickwatch/pkg/types"
)

// DiffInputError reports an undecodable snapshot document. Side names
// which input was bad.
type DiffInputError struct {
	Side  string
	Cause error
}

func (e *DiffInputError) Error() string {
	return fmt.Sprintf("invalid %s snapshot: %v", e.Side, e.Cause)
}

func (e *DiffInputError) Unwrap() error { return e.Cause }

// Diff compares the current snapshot against the historical one.
// thresholdPct is the minimum absolute percent change for a price
// movement to be reported; products whose historical price is zero are
// reported as unbounded changes and always exceed the threshold.
func Diff(current, historical types.Snapshot, thresholdPct float64) *types.ChangeReport {
	currentByID := current.IndexByID()
	historicalByID := historical.IndexByID()

	report := &types.ChangeReport{
		Category:     current.Category,
		Timestamp:    time.Now().UTC(),
		ThresholdPct: thresholdPct,
	}

	// Walk current records in document order so ties in the stable
	// sort below keep encounter order. Duplicate ids were already
	// resolved first-wins by IndexByID.
	unchanged := 0
	seen := make(map[string]bool)
	for _, cur := range current.Records {
		id := cur.ID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		hist, existed := historicalByID[id]
		if !existed {
			continue
		}

		priceMoved := cur.Price != hist.Price
		if priceMoved {
			change := priceChange(cur, hist)
			if exceedsThreshold(change, thresholdPct) {
				report.PriceChanges = append(report.PriceChanges, change)
			}
		}

		changes := fieldChanges(cur, hist)
		if priceMoved {
			// The price comparison already covers the raw string.
			delete(changes, "price_raw")
		}
		if len(changes) > 0 {
			report.OtherChanges = append(report.OtherChanges, types.OtherChange{
				ID:      id,
				Name:    cur.Name,
				Changes: changes,
			})
		} else if !priceMoved {
			unchanged++
		}
	}

	// Most dramatic movements first; unbounded changes outrank all
	// bounded ones.
	sort.SliceStable(report.PriceChanges, func(i, j int) bool {
		return sortKey(report.PriceChanges[i]) > sortKey(report.PriceChanges[j])
	})
	sort.SliceStable(report.OtherChanges, func(i, j int) bool {
		return report.OtherChanges[i].ID < report.OtherChanges[j].ID
	})

	// New and removed products keep snapshot document order.
	for _, record := range current.Records {
		if record.ID == "" {
			continue
		}
		if _, existed := historicalByID[record.ID]; !existed {
			if hasNewProduct(report.NewProducts, record.ID) {
				continue
			}
			report.NewProducts = append(report.NewProducts, types.NewProduct{
				ID:         record.ID,
				Name:       record.Name,
				Price:      record.Price,
				DetectedAt: report.Timestamp,
			})
		}
	}
	for _, record := range historical.Records {
		if record.ID == "" {
			continue
		}
		if _, exists := currentByID[record.ID]; !exists {
			if hasRemovedProduct(report.RemovedProducts, record.ID) {
				continue
			}
			report.RemovedProducts = append(report.RemovedProducts, types.RemovedProduct{
				ID:        record.ID,
				Name:      record.Name,
				LastPrice: record.Price,
				LastSeen:  record.Timestamp,
				RemovedAt: report.Timestamp,
			})
		}
	}

	report.Summary = types.ChangeSummary{
		TotalCurrentProducts:    len(currentByID),
		TotalHistoricalProducts: len(historicalByID),
		PriceChangesCount:       len(report.PriceChanges),
		NewProductsCount:        len(report.NewProducts),
		RemovedProductsCount:    len(report.RemovedProducts),
		OtherChangesCount:       len(report.OtherChanges),
		UnchangedCount:          unchanged,
	}
	return report
}

// DiffJSON decodes two snapshot documents and diffs them. Each
// document is a JSON array of product objects.
func DiffJSON(currentDoc, historicalDoc []byte, thresholdPct float64) (*types.ChangeReport, error) {
	current, err := decodeSnapshot(currentDoc)
	if err != nil {
		return nil, &DiffInputError{Side: "current", Cause: err}
	}
	historical, err := decodeSnapshot(historicalDoc)
	if err != nil {
		return nil, &DiffInputError{Side: "historical", Cause: err}
	}
	return Diff(current, historical, thresholdPct), nil
}

func decodeSnapshot(doc []byte) (types.Snapshot, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return types.Snapshot{}, err
	}
	return types.SnapshotFromMaps("", raw), nil
}

func priceChange(cur, hist types.ProductRecord) types.PriceChange {
	delta := cur.Price - hist.Price
	change := types.PriceChange{
		ProductID:      cur.ID,
		ProductName:    cur.Name,
		CurrentPrice:   cur.Price,
		PreviousPrice:  hist.Price,
		AbsoluteChange: delta,
	}
	if hist.Price == 0 {
		change.Unbounded = true
	} else {
		change.PercentChange = math.Round(delta/hist.Price*100*100) / 100
	}
	if delta > 0 {
		change.ChangeType = types.ChangeIncrease
	} else {
		change.ChangeType = types.ChangeDecrease
	}
	return change
}

func exceedsThreshold(change types.PriceChange, thresholdPct float64) bool {
	if change.Unbounded {
		return true
	}
	return math.Abs(change.PercentChange) >= thresholdPct
}

func sortKey(change types.PriceChange) float64 {
	if change.Unbounded {
		return math.Inf(1)
	}
	return math.Abs(change.PercentChange)
}

// fieldChanges compares the comparable fields of two records with the
// same id.
func fieldChanges(cur, hist types.ProductRecord) map[string]types.FieldChange {
	curFields := cur.ComparableFields()
	histFields := hist.ComparableFields()

	var changes map[string]types.FieldChange
	for field, curValue := range curFields {
		histValue := histFields[field]
		if reflect.DeepEqual(curValue, histValue) {
			continue
		}
		if changes == nil {
			changes = make(map[string]types.FieldChange)
		}
		changes[field] = types.FieldChange{From: histValue, To: curValue}
	}
	return changes
}

func hasNewProduct(products []types.NewProduct, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func hasRemovedProduct(products []types.RemovedProduct, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}
