package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"edudash/internal/csvtable"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	// Columns selects and orders the written columns. Empty means every dataset column.
	Columns []string
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility.
	BOMPrefix bool
}

// WriteCSV writes records of ds to w as CSV with a header row.
func WriteCSV(w io.Writer, ds *csvtable.Dataset, records []csvtable.Record, opts CSVOptions) error {
	if ds == nil {
		return fmt.Errorf("write csv: nil dataset")
	}
	columns := opts.Columns
	if len(columns) == 0 {
		columns = ds.Columns
	}

	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]string, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			row[j] = formatValue(rec.Get(col))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
