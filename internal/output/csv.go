// internal/output/csv.go
package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// writeReportCSV flattens the report into one row per event. The kind
// column distinguishes price changes from new and removed products.
func writeReportCSV(path string, report *types.ChangeReport) error {
	file, err := os.Create(path)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to create CSV file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"kind", "product_id", "product_name", "previous_price",
		"current_price", "absolute_change", "percent_change", "change_type"}
	if err := writer.Write(header); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV header")
	}

	for _, change := range report.PriceChanges {
		percent := formatFloat(change.PercentChange)
		if change.Unbounded {
			percent = "unbounded"
		}
		row := []string{"price_change", change.ProductID, change.ProductName,
			formatFloat(change.PreviousPrice), formatFloat(change.CurrentPrice),
			formatFloat(change.AbsoluteChange), percent, string(change.ChangeType)}
		if err := writer.Write(row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV row")
		}
	}
	for _, product := range report.NewProducts {
		row := []string{"new", product.ID, product.Name, "",
			formatFloat(product.Price), "", "", ""}
		if err := writer.Write(row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV row")
		}
	}
	for _, product := range report.RemovedProducts {
		row := []string{"removed", product.ID, product.Name,
			formatFloat(product.LastPrice), "", "", "", ""}
		if err := writer.Write(row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV row")
		}
	}
	return writer.Error()
}

var snapshotColumns = []string{"id", "name", "price", "price_raw", "currency",
	"availability", "badges", "category", "image_url", "product_url", "timestamp"}

func writeSnapshotCSV(path string, snapshot types.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to create CSV file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(snapshotColumns); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV header")
	}
	for _, record := range snapshot.Records {
		row := []string{
			record.ID,
			record.Name,
			formatFloat(record.Price),
			record.PriceRaw,
			record.Currency,
			record.Availability,
			strings.Join(record.Badges, "|"),
			record.Category,
			record.ImageURL,
			record.ProductURL,
			record.Timestamp.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write CSV row")
		}
	}
	return writer.Error()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
