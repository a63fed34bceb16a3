package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
	"github.com/xuri/excelize/v2"
)

// Format is a download encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DownloadName is the base file name offered to the browser
const DownloadName = "NBA_player_stats"

const sheetName = "players"

// ParseFormat maps a file extension to a Format
func ParseFormat(ext string) (Format, error) {
	switch Format(ext) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", ext)
	}
}

// FileName returns the attachment name for a format
func (f Format) FileName() string {
	return DownloadName + "." + string(f)
}

// ContentType returns the MIME type for a format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// EncodeCSV writes the table as UTF-8 comma-separated text. The first
// column is the row index under an empty header.
func EncodeCSV(t *stats.Table) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// bytes.Buffer writes cannot fail
	_ = w.Write(headerRecord(t))
	for i, row := range t.Rows {
		_ = w.Write(rowRecord(i, row))
	}
	w.Flush()

	return buf.Bytes()
}

// EncodeXLSX writes the same layout as EncodeCSV into a single sheet
func EncodeXLSX(t *stats.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toInterfaces(headerRecord(t))); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, 0, len(row)+1)
		values = append(values, i)
		for _, c := range row {
			values = append(values, xlsxValue(c))
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flushing sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func headerRecord(t *stats.Table) []string {
	return append([]string{""}, t.Columns...)
}

func rowRecord(i int, row []stats.Cell) []string {
	record := make([]string, 0, len(row)+1)
	record = append(record, strconv.Itoa(i))
	for _, c := range row {
		record = append(record, c.Value)
	}
	return record
}

// xlsxValue keeps numeric cells numeric so spreadsheets can sort them
func xlsxValue(c stats.Cell) interface{} {
	if !c.Valid {
		return ""
	}
	if v, err := strconv.ParseFloat(c.Value, 64); err == nil {
		return v
	}
	return c.Value
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
