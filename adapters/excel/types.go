package excel

import "causelens/domain/dataset"

// Table is a parsed spreadsheet: trimmed headers plus one Row per data line.
// Cells stay strings; numeric coercion happens downstream.
type Table struct {
	Headers []string
	Rows    []dataset.Row
}
