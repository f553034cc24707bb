package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteFile writes headers and rows as CSV or XLSX depending on the extension.
// Missing cells are written empty.
func WriteFile(path string, table *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, table)
	case ".xlsx":
		return writeXLSX(path, table)
	default:
		return fmt.Errorf("unsupported output extension: %s", filepath.Ext(path))
	}
}

func writeCSV(path string, table *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Headers); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i, h := range table.Headers {
			if v, ok := row[h]; ok && v != nil {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, table *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(table.Headers))
		for i, h := range table.Headers {
			values[i] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}
