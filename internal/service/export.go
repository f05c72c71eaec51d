package service

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet written by ExportXLSX.
const ExportSheetName = "Transactions"

var exportHeader = []string{"Date", "Type", "Category", "Description", "Amount", "Notes"}

func exportRows(items []domain.Transaction) [][]string {
	sorted := make([]domain.Transaction, len(items))
	copy(sorted, items)
	sortByDateDesc(sorted)

	rows := make([][]string, 0, len(sorted))
	for _, t := range sorted {
		rows = append(rows, []string{
			t.Date,
			string(t.Type),
			domain.LookupCategory(t.Category).Name,
			t.Description,
			t.Amount.StringFixed(2),
			t.Notes,
		})
	}
	return rows
}

// ExportCSV writes items as CSV, newest date first. The output starts with a
// UTF-8 BOM so spreadsheet apps detect the encoding.
func ExportCSV(w io.Writer, items []domain.Transaction) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(exportRows(items)); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ExportXLSX writes items as a single-sheet workbook, newest date first.
func ExportXLSX(w io.Writer, items []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range exportRows(items) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	f.SetColWidth(ExportSheetName, "A", "A", 12)
	f.SetColWidth(ExportSheetName, "B", "C", 16)
	f.SetColWidth(ExportSheetName, "D", "D", 30)
	f.SetColWidth(ExportSheetName, "E", "E", 12)
	f.SetColWidth(ExportSheetName, "F", "F", 30)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
