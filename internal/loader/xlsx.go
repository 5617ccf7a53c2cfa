package loader

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of an XLSX workbook. Rows are padded to
// the header width and staged through a dataframe before column mapping.
func readXLSX(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %q: %w", path, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty sheet", path)
	}

	// GetRows omits trailing empty cells, so pad every row to the header
	// width before staging; LoadRecords panics on ragged input.
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	// Everything stays a string; type coercion belongs to the cleaner.
	df := dataframe.LoadRecords(rows,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return nil, fmt.Errorf("%s: %w", path, df.Error())
	}

	rec := df.Records()
	if len(rec) == 0 {
		return nil, fmt.Errorf("%s: empty sheet", path)
	}
	return newTable(rec[0], rec[1:]), nil
}
