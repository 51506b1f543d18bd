// Package exporter writes dataset records and scatter charts to downloadable files.
//
// Three formats are supported:
//
// WriteWorkbook: an .xlsx workbook with one sheet per dataset, a bold header row and
// typed cells (numbers stay numeric, missing values stay empty).
//
// WriteCSV: UTF-8 CSV with an optional byte order mark so spreadsheet tools detect
// the encoding of the Chinese headers.
//
// RenderScatterPNG: a PNG scatter plot with region labels and the least-squares
// trend line.
//
// Example usage:
//
//	ds, _ := catalog.Load(ctx, datasets.Q1)
//	err := exporter.WriteWorkbook(w, ds, ds.Records)
package exporter
