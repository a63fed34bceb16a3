package stats

import "sort"

// Selection is a set of team or position codes.
// A nil Selection means no choice was made; an empty one selects nothing.
type Selection map[string]struct{}

// NewSelection builds a selection from values, which may be empty
func NewSelection(values ...string) Selection {
	s := make(Selection, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is selected
func (s Selection) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the selected values in ascending order
func (s Selection) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filter returns the rows whose team and position are both selected,
// in their original order, renumbered from zero.
func Filter(t *Table, teams, positions Selection) *FilteredTable {
	out := &FilteredTable{
		Table: Table{
			Columns: append([]string(nil), t.Columns...),
			Rows:    [][]Cell{},
		},
		SourceRows: []int{},
	}

	teamIdx := t.ColumnIndex(ColumnTeam)
	posIdx := t.ColumnIndex(ColumnPosition)
	if teamIdx < 0 || posIdx < 0 {
		return out
	}

	for i, row := range t.Rows {
		if !teams.Contains(row[teamIdx].Label()) || !positions.Contains(row[posIdx].Label()) {
			continue
		}
		out.Rows = append(out.Rows, row)
		out.SourceRows = append(out.SourceRows, i)
	}

	return out
}

// DistinctValues returns the sorted distinct labels of a column. Missing
// cells appear as MissingLabel so the defaults cover every row.
func DistinctValues(t *Table, column string) []string {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return []string{}
	}

	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		seen[row[idx].Label()] = struct{}{}
	}
	return Selection(seen).Sorted()
}
