// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// writeReportExcel writes the report as a workbook with one sheet per
// change kind.
func writeReportExcel(path string, report *types.ChangeReport) error {
	book := excelize.NewFile()
	defer book.Close()

	const changesSheet = "Price Changes"
	book.SetSheetName(book.GetSheetName(0), changesSheet)

	headers := []interface{}{"Product ID", "Product Name", "Previous Price",
		"Current Price", "Absolute Change", "Percent Change", "Change Type"}
	if err := book.SetSheetRow(changesSheet, "A1", &headers); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write workbook header")
	}
	for i, change := range report.PriceChanges {
		percent := interface{}(change.PercentChange)
		if change.Unbounded {
			percent = "unbounded"
		}
		row := []interface{}{change.ProductID, change.ProductName,
			change.PreviousPrice, change.CurrentPrice,
			change.AbsoluteChange, percent, string(change.ChangeType)}
		cell := fmt.Sprintf("A%d", i+2)
		if err := book.SetSheetRow(changesSheet, cell, &row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write workbook row")
		}
	}

	if err := writeProductSheet(book, "New Products", newProductRows(report.NewProducts)); err != nil {
		return err
	}
	if err := writeProductSheet(book, "Removed Products", removedProductRows(report.RemovedProducts)); err != nil {
		return err
	}

	if err := book.SaveAs(path); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to save workbook")
	}
	return nil
}

func writeProductSheet(book *excelize.File, name string, rows [][]interface{}) error {
	if _, err := book.NewSheet(name); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to create sheet")
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := book.SetSheetRow(name, cell, &row); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write workbook row")
		}
	}
	return nil
}

func newProductRows(products []types.NewProduct) [][]interface{} {
	rows := [][]interface{}{{"Product ID", "Product Name", "Price"}}
	for _, product := range products {
		rows = append(rows, []interface{}{product.ID, product.Name, product.Price})
	}
	return rows
}

func removedProductRows(products []types.RemovedProduct) [][]interface{} {
	rows := [][]interface{}{{"Product ID", "Product Name", "Last Price"}}
	for _, product := range products {
		rows = append(rows, []interface{}{product.ID, product.Name, product.LastPrice})
	}
	return rows
}
