// Package export writes ranked route tables to the formats consumed by
// downstream tooling: CSV, JSON, an XLSX report, and a NATS subject.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"route_ranker/internal/records"
)

// csvHeader is the column order of the flat route score table.
var csvHeader = []string{
	"route", "total_profit", "legs", "punctuality_score",
	"payback_months", "payback_score", "combined_score",
}

// WriteCSV writes the ranked routes as a flat CSV table. Infinite payback
// is rendered as "inf".
func WriteCSV(w io.Writer, ranked []records.RouteScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rs := range ranked {
		row := []string{
			rs.Route,
			formatFloat(rs.TotalProfit),
			strconv.Itoa(rs.Legs),
			formatFloat(rs.PunctualityScore),
			formatMonths(rs.PaybackMonths),
			formatFloat(rs.PaybackScore),
			formatFloat(rs.CombinedScore),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rs.Route, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the ranked routes as a JSON array.
func WriteJSON(w io.Writer, ranked []records.RouteScore, pretty bool) error {
	// Keep the empty ranking an empty array, not null.
	if ranked == nil {
		ranked = []records.RouteScore{}
	}

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(ranked, "", "  ")
	} else {
		data, err = json.Marshal(ranked)
	}
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatMonths(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	return formatFloat(f)
}
