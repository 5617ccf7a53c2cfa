package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"route_ranker/internal/records"
)

const reportSheet = "Ranking"

// WriteXLSXReport writes the ranked routes as an XLSX workbook with one
// "Ranking" sheet: a header row, one row per route, rank in column A.
func WriteXLSXReport(path string, ranked []records.RouteScore) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := []interface{}{
		"Rank", "Route", "Total Profit", "Legs",
		"Punctuality Score", "Payback Months", "Payback Score", "Combined Score",
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rs := range ranked {
		var months interface{} = rs.PaybackMonths
		if math.IsInf(rs.PaybackMonths, 1) {
			months = "never"
		}
		row := []interface{}{
			i + 1, rs.Route, rs.TotalProfit, rs.Legs,
			rs.PunctualityScore, months, rs.PaybackScore, rs.CombinedScore,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %s: %w", rs.Route, err)
		}
	}

	// Wide enough for the route keys and score columns.
	if err := f.SetColWidth(reportSheet, "A", "H", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
