package stats

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// CorrelationColumns is how many leading columns the heatmap considers
const CorrelationColumns = 10

// CorrelationMatrix holds pairwise Pearson coefficients.
// NaN marks an undefined coefficient.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"-"`
}

// MarshalJSON writes NaN coefficients as null
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			v := v
			values[i][j] = &v
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, values})
}

// Correlate computes the Pearson correlation between every pair of numeric
// columns among the first CorrelationColumns columns of the table. Pairs are
// compared over rows where both values are present.
func Correlate(t *Table) *CorrelationMatrix {
	limit := len(t.Columns)
	if limit > CorrelationColumns {
		limit = CorrelationColumns
	}

	var names []string
	var series [][]float64
	var present [][]bool
	for c := 0; c < limit; c++ {
		values, ok, numeric := numericColumn(t, c)
		if !numeric {
			continue
		}
		names = append(names, t.Columns[c])
		series = append(series, values)
		present = append(present, ok)
	}

	n := len(names)
	m := &CorrelationMatrix{Columns: names, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y := pairwise(series[i], present[i], series[j], present[j])
			var r float64
			if i == j {
				r = math.NaN()
				if len(x) >= 2 && stat.Variance(x, nil) > 0 {
					r = 1
				}
			} else {
				r = pearson(x, y)
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}

	return m
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// numericColumn parses a column as floats. A column counts as numeric when
// every present cell parses and at least one cell is present.
func numericColumn(t *Table, c int) ([]float64, []bool, bool) {
	values := make([]float64, len(t.Rows))
	ok := make([]bool, len(t.Rows))
	seen := false
	for r, row := range t.Rows {
		cell := row[c]
		if !cell.Valid {
			continue
		}
		v, err := strconv.ParseFloat(cell.Value, 64)
		if err != nil {
			return nil, nil, false
		}
		values[r] = v
		ok[r] = true
		seen = true
	}
	return values, ok, seen
}

func pairwise(a []float64, aok []bool, b []float64, bok []bool) ([]float64, []float64) {
	var x, y []float64
	for r := range a {
		if aok[r] && bok[r] {
			x = append(x, a[r])
			y = append(y, b[r])
		}
	}
	return x, y
}
