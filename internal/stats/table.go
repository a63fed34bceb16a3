package stats

import (
	"encoding/json"
	"errors"
)

// Column labels the source table is expected to carry
const (
	ColumnRank     = "Rk"
	ColumnPlayer   = "Player"
	ColumnAge      = "Age"
	ColumnTeam     = "Team"
	ColumnPosition = "Pos"
)

var (
	// ErrSourceUnavailable means the remote page could not be retrieved or held no table
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrFormatUnexpected means the remote table no longer matches the expected layout
	ErrFormatUnexpected = errors.New("format unexpected")
)

// Cell is a single table value kept in its string form.
// Missing cells are those the source left blank.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell
func Text(v string) Cell {
	return Cell{Value: v, Valid: true}
}

// Missing returns an empty cell
func Missing() Cell {
	return Cell{}
}

// MissingLabel is how a missing team or position is offered and matched
// in selections.
const MissingLabel = "nan"

// Label returns the cell's value, or MissingLabel for a missing cell
func (c Cell) Label() string {
	if !c.Valid {
		return MissingLabel
	}
	return c.Value
}

// MarshalJSON writes missing cells as null
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON reads null back as a missing cell
func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Missing()
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Text(v)
	return nil
}

// RawTable is the first table of a source page before cleaning
type RawTable struct {
	Header []string `json:"header"`
	Rows   [][]Cell `json:"rows"`
}

// Table is an ordered set of player rows sharing one column schema.
// The row index is implicit: row i has index i.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// FilteredTable is a Table restricted by a team and position selection
type FilteredTable struct {
	Table
	// SourceRows holds, per row, its position in the table it was filtered from
	SourceRows []int `json:"source_rows"`
}

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	return columnIndex(t.Columns, name)
}

// Dimension returns rows x columns
func (t *Table) Dimension() (int, int) {
	return len(t.Rows), len(t.Columns)
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
