package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// requiredColumns must appear in the header of a per-game table
var requiredColumns = []string{ColumnAge, ColumnTeam, ColumnPosition}

// ExtractFirstTable parses an HTML document and returns its first table.
// The first row of the table is taken as the header; every later row,
// including header rows repeated inside the body, is returned as data.
func ExtractFirstTable(r io.Reader) (*RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document: %v", ErrSourceUnavailable, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table in document", ErrSourceUnavailable)
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrSourceUnavailable)
	}

	raw := &RawTable{}
	rows.First().Find("th,td").Each(func(_ int, s *goquery.Selection) {
		raw.Header = append(raw.Header, cellText(s))
	})

	rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
		row := make([]Cell, len(raw.Header))
		tr.Find("th,td").Each(func(i int, s *goquery.Selection) {
			if i >= len(row) {
				return
			}
			if txt := cellText(s); txt != "" {
				row[i] = Text(txt)
			}
		})
		raw.Rows = append(raw.Rows, row)
	})

	if err := ValidateHeader(raw.Header); err != nil {
		return nil, err
	}

	return raw, nil
}

// ValidateHeader checks the columns the rest of the pipeline depends on
func ValidateHeader(header []string) error {
	for _, name := range requiredColumns {
		if columnIndex(header, name) < 0 {
			return fmt.Errorf("%w: missing %q column", ErrFormatUnexpected, name)
		}
	}
	return nil
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(s.Text(), "\u00a0", " "))
}
