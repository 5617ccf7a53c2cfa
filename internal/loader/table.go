// Package loader reads raw flight, ticket, and airport tables from CSV or
// XLSX files. It maps columns by header name and hands rows to the cleaner
// untyped; per-cell validation is the cleaner's job, so a loader only
// fails on structural problems like a missing required column.
package loader

import (
	"fmt"
	"strings"

	"route_ranker/internal/records"
)

// table is a parsed tabular file: a header index plus raw rows.
type table struct {
	colIndex map[string]int
	rows     [][]string
}

func newTable(header []string, rows [][]string) *table {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &table{colIndex: idx, rows: rows}
}

// resolve returns the index of the first header alias present, or -1.
func (t *table) resolve(aliases ...string) int {
	for _, name := range aliases {
		if i, ok := t.colIndex[name]; ok {
			return i
		}
	}
	return -1
}

// cell returns the value at column index i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// requireColumns resolves each alias group, erroring on the first group
// with no match. The returned indices parallel the groups.
func (t *table) requireColumns(groups ...[]string) ([]int, error) {
	indices := make([]int, len(groups))
	for i, aliases := range groups {
		idx := t.resolve(aliases...)
		if idx < 0 {
			return nil, fmt.Errorf("missing required column %q", aliases[0])
		}
		indices[i] = idx
	}
	return indices, nil
}

func (t *table) rawFlights() ([]records.RawFlight, error) {
	cols, err := t.requireColumns(
		[]string{"origin", "origin_airport", "org"},
		[]string{"destination", "dest", "dest_airport"},
		[]string{"fl_date", "flight_date", "date"},
		[]string{"distance"},
		[]string{"air_time", "airtime"},
		[]string{"dep_delay", "departure_delay"},
		[]string{"arr_delay", "arrival_delay"},
		[]string{"cancelled", "canceled"},
	)
	if err != nil {
		return nil, err
	}
	// Occupancy is optional in some exports; the cleaner defaults it to zero.
	occCol := t.resolve("occupancy_rate", "occupancy")

	raws := make([]records.RawFlight, 0, len(t.rows))
	for _, row := range t.rows {
		raws = append(raws, records.RawFlight{
			Origin:      cell(row, cols[0]),
			Destination: cell(row, cols[1]),
			FlightDate:  cell(row, cols[2]),
			Distance:    cell(row, cols[3]),
			Airtime:     cell(row, cols[4]),
			DepDelay:    cell(row, cols[5]),
			ArrDelay:    cell(row, cols[6]),
			Cancelled:   cell(row, cols[7]),
			Occupancy:   cell(row, occCol),
		})
	}
	return raws, nil
}

func (t *table) rawTickets() ([]records.RawTicket, error) {
	cols, err := t.requireColumns(
		[]string{"itin_id", "itinerary_id"},
		[]string{"origin", "org"},
		[]string{"destination", "dest"},
		[]string{"itin_fare", "fare"},
	)
	if err != nil {
		return nil, err
	}
	paxCol := t.resolve("passengers", "roundtrip_passengers", "pax")

	raws := make([]records.RawTicket, 0, len(t.rows))
	for _, row := range t.rows {
		raws = append(raws, records.RawTicket{
			ItineraryID: cell(row, cols[0]),
			Origin:      cell(row, cols[1]),
			Destination: cell(row, cols[2]),
			Fare:        cell(row, cols[3]),
			Passengers:  cell(row, paxCol),
		})
	}
	return raws, nil
}

func (t *table) rawAirports() ([]records.RawAirport, error) {
	cols, err := t.requireColumns(
		[]string{"iata_code", "iata", "code"},
		[]string{"type", "size", "airport_type"},
	)
	if err != nil {
		return nil, err
	}

	raws := make([]records.RawAirport, 0, len(t.rows))
	for _, row := range t.rows {
		raws = append(raws, records.RawAirport{
			IATA: cell(row, cols[0]),
			Size: cell(row, cols[1]),
		})
	}
	return raws, nil
}
