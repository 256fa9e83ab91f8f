package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeSheet(sheet string, header []string, rows [][]any, widths []float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	for c, w := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func DailyXLSX(rows []DailyRow) ([]byte, error) {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{
			r.Date,
			r.TotalAmount.InexactFloat64(),
			r.CashAmount.InexactFloat64(),
			r.UPIAmount.InexactFloat64(),
			r.TestAmount.InexactFloat64(),
			r.Count,
		}
	}
	return writeSheet("Daily",
		[]string{"Date", "Total", "Cash", "UPI", "Test", "Payments"},
		data,
		[]float64{14, 14, 14, 14, 14, 10})
}

func BranchXLSX(rows []BranchRow) ([]byte, error) {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.BranchID, r.BranchName, r.TotalAmount.InexactFloat64(), r.WorkCount, r.CustomerCount}
	}
	return writeSheet("Branches",
		[]string{"Branch ID", "Branch", "Total", "Completed work", "Active customers"},
		data,
		[]float64{10, 28, 14, 16, 18})
}

func SummaryXLSX(s Summary) ([]byte, error) {
	data := [][]any{
		{"Total revenue", s.TotalRevenue.InexactFloat64()},
		{"Work entries", s.TotalWorks},
		{"Active customers", s.TotalCustomers},
		{"Documents", s.TotalDocuments},
	}
	return writeSheet("Summary", []string{"Metric", "Value"}, data, []float64{22, 16})
}
