// internal/analysis/diff_test.go
package analysis

import (
	"math"
	"testing"

	"github.com/bkaplan/brickwatch/pkg/types"
)

func snapshot(category string, records ...types.ProductRecord) types.Snapshot {
	return types.Snapshot{Category: category, Records: records}
}

func record(id, name string, price float64) types.ProductRecord {
	return types.ProductRecord{ID: id, Name: name, Price: price, Currency: "TRY"}
}

func TestDiffPriceChangeAboveThreshold(t *testing.T) {
	current := snapshot("icons", record("21058", "Great Pyramid of Giza", 299.99))
	historical := snapshot("icons", record("21058", "Great Pyramid of Giza", 279.99))

	report := Diff(current, historical, 5)

	if len(report.PriceChanges) != 1 {
		t.Fatalf("expected 1 price change, got %d", len(report.PriceChanges))
	}
	change := report.PriceChanges[0]
	if change.PercentChange != 7.14 {
		t.Errorf("expected percent change 7.14, got %v", change.PercentChange)
	}
	if change.ChangeType != types.ChangeIncrease {
		t.Errorf("expected increase, got %v", change.ChangeType)
	}
	if change.AbsoluteChange < 19.99 || change.AbsoluteChange > 20.01 {
		t.Errorf("unexpected absolute change: %v", change.AbsoluteChange)
	}
}

func TestDiffPriceChangeBelowThreshold(t *testing.T) {
	current := snapshot("icons", record("21058", "Great Pyramid of Giza", 299.99))
	historical := snapshot("icons", record("21058", "Great Pyramid of Giza", 279.99))

	report := Diff(current, historical, 10)

	if len(report.PriceChanges) != 0 {
		t.Fatalf("expected no price changes at threshold 10, got %d", len(report.PriceChanges))
	}
	if report.Summary.UnchangedCount != 0 {
		t.Errorf("a filtered price move is not unchanged, got %d", report.Summary.UnchangedCount)
	}
}

func TestDiffPriceAndFieldChangeTogether(t *testing.T) {
	cur := record("21058", "Great Pyramid of Giza", 299.99)
	cur.PriceRaw = "299,99 TL"
	cur.Availability = "out_of_stock"
	hist := record("21058", "Great Pyramid of Giza", 279.99)
	hist.PriceRaw = "279,99 TL"
	hist.Availability = "in_stock"

	report := Diff(snapshot("icons", cur), snapshot("icons", hist), 0)

	if len(report.PriceChanges) != 1 {
		t.Fatalf("expected 1 price change, got %d", len(report.PriceChanges))
	}
	if len(report.OtherChanges) != 1 {
		t.Fatalf("expected 1 other change alongside the price change, got %d", len(report.OtherChanges))
	}
	changes := report.OtherChanges[0].Changes
	if change := changes["availability"]; change.From != "in_stock" || change.To != "out_of_stock" {
		t.Errorf("unexpected availability change: %+v", change)
	}
	if _, reported := changes["price_raw"]; reported {
		t.Error("raw price string should not double-report a price change")
	}
	if report.Summary.UnchangedCount != 0 {
		t.Errorf("expected no unchanged products, got %d", report.Summary.UnchangedCount)
	}
}

func TestDiffFieldChangesSurviveThresholdFilter(t *testing.T) {
	cur := record("21058", "Great Pyramid of Giza", 100.50)
	cur.Availability = "out_of_stock"
	hist := record("21058", "Great Pyramid of Giza", 100.00)
	hist.Availability = "in_stock"

	report := Diff(snapshot("icons", cur), snapshot("icons", hist), 5)

	if len(report.PriceChanges) != 0 {
		t.Fatalf("0.5%% move is below threshold 5, got %d price changes", len(report.PriceChanges))
	}
	if len(report.OtherChanges) != 1 {
		t.Fatalf("expected the availability change to be reported, got %d", len(report.OtherChanges))
	}
	if change := report.OtherChanges[0].Changes["availability"]; change.To != "out_of_stock" {
		t.Errorf("unexpected field change: %+v", change)
	}
}

func TestDiffNewAndRemoved(t *testing.T) {
	current := snapshot("icons",
		record("21058", "Great Pyramid of Giza", 279.99),
		record("10294", "Titanic", 9999.90),
	)
	historical := snapshot("icons",
		record("21058", "Great Pyramid of Giza", 279.99),
		record("10276", "Colosseum", 4999.90),
	)

	report := Diff(current, historical, 0)

	if len(report.NewProducts) != 1 || report.NewProducts[0].ID != "10294" {
		t.Fatalf("expected new product 10294, got %v", report.NewProducts)
	}
	if len(report.RemovedProducts) != 1 || report.RemovedProducts[0].ID != "10276" {
		t.Fatalf("expected removed product 10276, got %v", report.RemovedProducts)
	}
	if report.RemovedProducts[0].LastPrice != 4999.90 {
		t.Errorf("unexpected last price: %v", report.RemovedProducts[0].LastPrice)
	}
	if report.Summary.UnchangedCount != 1 {
		t.Errorf("expected 1 unchanged product, got %d", report.Summary.UnchangedCount)
	}
}

func TestDiffSortsByAbsolutePercent(t *testing.T) {
	current := snapshot("icons",
		record("11111", "Small Move", 102.0),
		record("22222", "Big Move", 150.0),
		record("33333", "Medium Move", 110.0),
	)
	historical := snapshot("icons",
		record("11111", "Small Move", 100.0),
		record("22222", "Big Move", 100.0),
		record("33333", "Medium Move", 100.0),
	)

	report := Diff(current, historical, 0)

	if len(report.PriceChanges) != 3 {
		t.Fatalf("expected 3 price changes, got %d", len(report.PriceChanges))
	}
	order := []string{"22222", "33333", "11111"}
	for i, id := range order {
		if report.PriceChanges[i].ProductID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, report.PriceChanges[i].ProductID)
		}
	}
}

func TestDiffEqualPercentChangesKeepDocumentOrder(t *testing.T) {
	ids := []string{"10000", "10001", "10002", "10003", "10004", "10005", "10006", "10007"}
	var cur, hist []types.ProductRecord
	for _, id := range ids {
		cur = append(cur, record(id, "Set "+id, 110.0))
		hist = append(hist, record(id, "Set "+id, 100.0))
	}

	report := Diff(snapshot("icons", cur...), snapshot("icons", hist...), 0)

	if len(report.PriceChanges) != len(ids) {
		t.Fatalf("expected %d price changes, got %d", len(ids), len(report.PriceChanges))
	}
	for i, id := range ids {
		if report.PriceChanges[i].ProductID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, report.PriceChanges[i].ProductID)
		}
	}
}

func TestDiffZeroHistoricalPriceIsUnbounded(t *testing.T) {
	current := snapshot("icons",
		record("11111", "From Zero", 50.0),
		record("22222", "Doubled", 200.0),
	)
	historical := snapshot("icons",
		record("11111", "From Zero", 0),
		record("22222", "Doubled", 100.0),
	)

	report := Diff(current, historical, 500)

	// The unbounded change exceeds any threshold and sorts first.
	if len(report.PriceChanges) != 1 {
		t.Fatalf("expected only the unbounded change at threshold 500, got %d", len(report.PriceChanges))
	}
	change := report.PriceChanges[0]
	if !change.Unbounded {
		t.Error("expected unbounded flag")
	}
	if change.PercentChange != 0 {
		t.Errorf("unbounded change must keep percent at 0, got %v", change.PercentChange)
	}
	if change.ChangeType != types.ChangeIncrease {
		t.Errorf("expected increase, got %v", change.ChangeType)
	}
}

func TestDiffOtherChanges(t *testing.T) {
	cur := record("21058", "Great Pyramid of Giza", 279.99)
	cur.Availability = "out_of_stock"
	hist := record("21058", "Great Pyramid of Giza", 279.99)
	hist.Availability = "in_stock"

	report := Diff(snapshot("icons", cur), snapshot("icons", hist), 0)

	if len(report.OtherChanges) != 1 {
		t.Fatalf("expected 1 other change, got %d", len(report.OtherChanges))
	}
	change := report.OtherChanges[0].Changes["availability"]
	if change.From != "in_stock" || change.To != "out_of_stock" {
		t.Errorf("unexpected field change: %+v", change)
	}
	if report.Summary.OtherChangesCount != 1 {
		t.Errorf("summary mismatch: %d", report.Summary.OtherChangesCount)
	}
}

func TestDiffPartition(t *testing.T) {
	current := snapshot("icons",
		record("11111", "Changed", 120.0),
		record("22222", "Same", 100.0),
		record("33333", "Added", 300.0),
	)
	historical := snapshot("icons",
		record("11111", "Changed", 100.0),
		record("22222", "Same", 100.0),
		record("44444", "Gone", 400.0),
	)

	report := Diff(current, historical, 0)

	// With threshold 0 and no overlapping change kinds, the buckets
	// account for every current id.
	total := report.Summary.PriceChangesCount + report.Summary.OtherChangesCount +
		report.Summary.NewProductsCount + report.Summary.UnchangedCount
	if total != report.Summary.TotalCurrentProducts {
		t.Errorf("buckets sum to %d, expected %d", total, report.Summary.TotalCurrentProducts)
	}
	if report.Summary.RemovedProductsCount != 1 {
		t.Errorf("expected 1 removed, got %d", report.Summary.RemovedProductsCount)
	}
}

func TestDiffDuplicateIDsFirstOccurrenceWins(t *testing.T) {
	current := snapshot("icons",
		record("21058", "Great Pyramid of Giza", 279.99),
		record("21058", "Great Pyramid of Giza", 999.99),
	)
	historical := snapshot("icons", record("21058", "Great Pyramid of Giza", 279.99))

	report := Diff(current, historical, 0)

	if report.HasChanges() {
		t.Errorf("duplicate record should be ignored, got %+v", report)
	}
	if report.Summary.TotalCurrentProducts != 1 {
		t.Errorf("expected 1 distinct product, got %d", report.Summary.TotalCurrentProducts)
	}
}

func TestDiffEmptyHistory(t *testing.T) {
	current := snapshot("icons",
		record("21058", "Great Pyramid of Giza", 279.99),
		record("10276", "Colosseum", 4999.90),
	)

	report := Diff(current, types.Snapshot{Category: "icons"}, 0)

	if len(report.NewProducts) != 2 {
		t.Fatalf("everything is new on first run, got %d", len(report.NewProducts))
	}
	// Document order preserved.
	if report.NewProducts[0].ID != "21058" || report.NewProducts[1].ID != "10276" {
		t.Errorf("unexpected order: %v", report.NewProducts)
	}
	if len(report.RemovedProducts) != 0 {
		t.Errorf("nothing can be removed on first run, got %v", report.RemovedProducts)
	}
}

func TestDiffPercentRounding(t *testing.T) {
	current := snapshot("icons", record("11111", "Thirds", 100.0/3.0))
	historical := snapshot("icons", record("11111", "Thirds", 10.0))

	report := Diff(current, historical, 0)

	change := report.PriceChanges[0]
	rounded := math.Round(change.PercentChange*100) / 100
	if change.PercentChange != rounded {
		t.Errorf("percent change not rounded to 2 decimals: %v", change.PercentChange)
	}
}

func TestDiffJSONBadInput(t *testing.T) {
	good := []byte(`[{"id":"21058","name":"x","price":1}]`)
	bad := []byte(`{"not":"a list"}`)

	if _, err := DiffJSON(bad, good, 0); err == nil {
		t.Error("expected error for bad current document")
	}
	if _, err := DiffJSON(good, bad, 0); err == nil {
		t.Error("expected error for bad historical document")
	}

	report, err := DiffJSON(good, good, 0)
	if err != nil {
		t.Fatalf("DiffJSON failed on valid input: %v", err)
	}
	if report.HasChanges() {
		t.Errorf("identical documents should show no changes: %+v", report)
	}
}
