package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"edudash/internal/csvtable"
)

const (
	defaultSheet   = "Sheet1"
	maxSheetName   = 31
	invalidInSheet = `:\/?*[]`
)

// WriteWorkbook writes records of ds to w as an .xlsx workbook with a single sheet
// named after the dataset. Numbers are written as numeric cells and nulls are left blank.
func WriteWorkbook(w io.Writer, ds *csvtable.Dataset, records []csvtable.Record) error {
	if ds == nil {
		return fmt.Errorf("write workbook: nil dataset")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(ds.Name)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(ds.Columns))
	for i, col := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header %s: %w", col, err)
		}
		widths[i] = displayWidth(col)
	}

	for r, rec := range records {
		for i, col := range ds.Columns {
			v := rec.Get(col)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v.Any()); err != nil {
				return fmt.Errorf("write %s row %d: %w", col, r+1, err)
			}
			if n := displayWidth(formatValue(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if len(ds.Columns) > 0 {
		if err := styleHeader(f, sheet, len(ds.Columns)); err != nil {
			return err
		}
	}
	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(width)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// sheetName makes name acceptable as an Excel sheet name.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidInSheet, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultSheet
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}
