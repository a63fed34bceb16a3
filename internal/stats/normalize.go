package stats

import "fmt"

// Normalize cleans a raw per-game table. The steps run in order:
// repeated header rows (Age == "Age") are removed, missing cells are
// forward-filled column by column, and the rank column is dropped.
func Normalize(raw *RawTable) (*Table, error) {
	ageIdx := columnIndex(raw.Header, ColumnAge)
	if ageIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrFormatUnexpected, ColumnAge)
	}
	rankIdx := columnIndex(raw.Header, ColumnRank)
	if rankIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrFormatUnexpected, ColumnRank)
	}

	width := len(raw.Header)
	kept := make([][]Cell, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		if ageIdx < len(row) && row[ageIdx].Valid && row[ageIdx].Value == ColumnAge {
			continue
		}
		// copy so the raw table stays untouched
		cp := make([]Cell, width)
		copy(cp, row)
		kept = append(kept, cp)
	}

	forwardFill(kept, width)

	columns := make([]string, 0, width-1)
	columns = append(columns, raw.Header[:rankIdx]...)
	columns = append(columns, raw.Header[rankIdx+1:]...)

	rows := make([][]Cell, len(kept))
	for r, row := range kept {
		rows[r] = append(row[:rankIdx], row[rankIdx+1:]...)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// forwardFill replaces each missing cell with the nearest preceding
// present value in the same column. Leading gaps stay missing.
func forwardFill(rows [][]Cell, width int) {
	last := make([]Cell, width)
	for _, row := range rows {
		for i := 0; i < width; i++ {
			if row[i].Valid {
				last[i] = row[i]
			} else {
				row[i] = last[i]
			}
		}
	}
}
