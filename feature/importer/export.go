package importer

import (
	"fmt"
	"io"

	"sapataria/feature/stock"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"GTIN", "Model", "Brand", "Color", "Size", "Quantity"}

// WriteWarehouseXLSX writes a warehouse stock listing as a single-sheet workbook.
func WriteWarehouseXLSX(w io.Writer, sheetName string, rows []stock.WarehouseRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Stock"
	}
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := []any{row.GTIN, row.Model, row.Brand, row.Color, row.Size, row.Quantity}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	return f.Write(w)
}
