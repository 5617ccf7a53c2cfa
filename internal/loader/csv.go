package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"route_ranker/internal/records"
)

// Flights loads raw flight rows from a .csv or .xlsx file, dispatching on
// the file extension.
func Flights(path string) ([]records.RawFlight, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return t.rawFlights()
}

// Tickets loads raw itinerary rows from a .csv or .xlsx file.
func Tickets(path string) ([]records.RawTicket, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return t.rawTickets()
}

// Airports loads raw airport reference rows from a .csv or .xlsx file.
func Airports(path string) ([]records.RawAirport, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return t.rawAirports()
}

func readTable(path string) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	}
	return nil, fmt.Errorf("unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // short rows are dropped by the cleaner, not here
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line is one bad row, not a bad file.
			continue
		}
		rows = append(rows, row)
	}
	return newTable(header, rows), nil
}
