package rdfit

import (
	"causelens/adapters/datareadiness/coercer"
	"causelens/domain/dataset"
	"causelens/domain/rd"
)

// WindowSelection is the outcome of filtering raw rows to the bandwidth window
type WindowSelection struct {
	Points            []rd.ScatterPoint // Treated is not set yet
	RowsRead          int
	DroppedNonNumeric int
	DroppedOutside    int
}

// SelectWindow keeps rows whose running and outcome cells are both finite
// numbers and whose running value lies within bandwidth of the cutoff.
// Dropped rows are counted, never reported as errors.
func SelectWindow(rows []dataset.Row, running, outcome string, w rd.Window, c *coercer.NumericCoercer) WindowSelection {
	sel := WindowSelection{
		Points:   make([]rd.ScatterPoint, 0, len(rows)),
		RowsRead: len(rows),
	}

	for _, row := range rows {
		x, okX := c.Float(row[running])
		y, okY := c.Float(row[outcome])
		if !okX || !okY {
			sel.DroppedNonNumeric++
			continue
		}
		if !w.Contains(x) {
			sel.DroppedOutside++
			continue
		}
		sel.Points = append(sel.Points, rd.ScatterPoint{X: x, Y: y})
	}

	return sel
}
