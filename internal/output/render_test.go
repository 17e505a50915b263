// internal/output/render_test.go
package output

import (
	"strings"
	"testing"
	"time"

	"github.com/bkaplan/brickwatch/pkg/types"
)

func sampleReport() *types.ChangeReport {
	return &types.ChangeReport{
		Category:  "Icons",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PriceChanges: []types.PriceChange{
			{
				ProductID:      "21058",
				ProductName:    "Great Pyramid of Giza",
				PreviousPrice:  279.99,
				CurrentPrice:   299.99,
				AbsoluteChange: 20.00,
				PercentChange:  7.14,
				ChangeType:     types.ChangeIncrease,
			},
		},
		NewProducts: []types.NewProduct{
			{ID: "10294", Name: "Titanic", Price: 9999.90},
		},
		RemovedProducts: []types.RemovedProduct{
			{ID: "10276", Name: "Colosseum", LastPrice: 4999.90},
		},
		Summary: types.ChangeSummary{
			TotalCurrentProducts:    25,
			TotalHistoricalProducts: 25,
			PriceChangesCount:       1,
			NewProductsCount:        1,
			RemovedProductsCount:    1,
		},
	}
}

func TestConsoleSummary(t *testing.T) {
	text := ConsoleSummary(sampleReport())

	for _, want := range []string{
		"Category: Icons",
		"25 current, 25 previous",
		"21058 Great Pyramid of Giza: 279.99 -> 299.99 (+7.14%)",
		"10294 Titanic at 9999.90",
		"10276 Colosseum last seen at 4999.90",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestConsoleSummaryNoChanges(t *testing.T) {
	report := &types.ChangeReport{Category: "Icons"}
	text := ConsoleSummary(report)
	if !strings.Contains(text, "No changes detected.") {
		t.Errorf("expected no-changes message:\n%s", text)
	}
}

func TestConsoleSummaryUnbounded(t *testing.T) {
	report := &types.ChangeReport{
		Category: "Icons",
		PriceChanges: []types.PriceChange{
			{
				ProductID:    "11111",
				ProductName:  "From Zero",
				CurrentPrice: 50,
				Unbounded:    true,
				ChangeType:   types.ChangeIncrease,
			},
		},
	}
	text := ConsoleSummary(report)
	if !strings.Contains(text, "from zero") {
		t.Errorf("expected unbounded marker:\n%s", text)
	}
}

func TestConsoleSummaryOtherChangeFieldsSorted(t *testing.T) {
	report := &types.ChangeReport{
		Category: "Icons",
		OtherChanges: []types.OtherChange{
			{
				ID:   "21058",
				Name: "Great Pyramid of Giza",
				Changes: map[string]types.FieldChange{
					"image_url":    {From: "a.jpg", To: "b.jpg"},
					"availability": {From: "in_stock", To: "out_of_stock"},
					"description":  {From: "old", To: "new"},
				},
			},
		},
	}
	text := ConsoleSummary(report)
	want := "21058 Great Pyramid of Giza: availability, description, image_url"
	if !strings.Contains(text, want) {
		t.Errorf("expected sorted field list %q:\n%s", want, text)
	}
}

func TestEmailBody(t *testing.T) {
	body, err := EmailBody(sampleReport())
	if err != nil {
		t.Fatalf("EmailBody failed: %v", err)
	}

	for _, want := range []string{
		"Price report for Icons",
		"Great Pyramid of Giza",
		"279.99",
		"299.99",
		"7.14%",
		"Titanic",
		"Colosseum",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("email body missing %q", want)
		}
	}
}

func TestEmailBodyNoChanges(t *testing.T) {
	body, err := EmailBody(&types.ChangeReport{Category: "Icons"})
	if err != nil {
		t.Fatalf("EmailBody failed: %v", err)
	}
	if !strings.Contains(body, "No changes detected.") {
		t.Errorf("expected no-changes message in body")
	}
}
