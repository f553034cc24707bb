package rdfit

import (
	"math"
	"testing"

	"causelens/adapters/datareadiness/coercer"
	"causelens/domain/dataset"
	"causelens/domain/rd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictCoercer() *coercer.NumericCoercer {
	return coercer.NewNumericCoercer(coercer.DefaultCoercionConfig())
}

func TestSelectWindow_InclusionRule(t *testing.T) {
	rows := []dataset.Row{
		{"score": "55", "earn": "1"},    // lower edge
		{"score": 85.0, "earn": 2.0},    // upper edge
		{"score": "54.99", "earn": "3"}, // just outside
		{"score": "70", "earn": ""},     // empty outcome
		{"score": "abc", "earn": "4"},   // non-numeric running
		{"earn": "5"},                   // missing running
		{"score": "NaN", "earn": "6"},   // non-finite
		{"score": 60, "earn": 7},        // ints are numbers
	}

	sel := SelectWindow(rows, "score", "earn", rd.Window{Cutoff: 70, Bandwidth: 15}, strictCoercer())

	require.Len(t, sel.Points, 3)
	assert.Equal(t, rd.ScatterPoint{X: 55, Y: 1}, sel.Points[0])
	assert.Equal(t, rd.ScatterPoint{X: 85, Y: 2}, sel.Points[1])
	assert.Equal(t, rd.ScatterPoint{X: 60, Y: 7}, sel.Points[2])
	assert.Equal(t, 8, sel.RowsRead)
	assert.Equal(t, 4, sel.DroppedNonNumeric)
	assert.Equal(t, 1, sel.DroppedOutside)
}

func TestSelectWindow_BandwidthExtremes(t *testing.T) {
	rows := make([]dataset.Row, 0, 101)
	for i := 0; i <= 100; i++ {
		rows = append(rows, dataset.Row{"x": float64(i), "y": float64(i * 2)})
	}

	tiny := SelectWindow(rows, "x", "y", rd.Window{Cutoff: 50, Bandwidth: 1e-9}, strictCoercer())
	require.Len(t, tiny.Points, 1)
	assert.Equal(t, 50.0, tiny.Points[0].X)

	huge := SelectWindow(rows, "x", "y", rd.Window{Cutoff: 50, Bandwidth: 1e9}, strictCoercer())
	assert.Len(t, huge.Points, 101)
	assert.Zero(t, huge.DroppedOutside)

	// every kept point obeys the window rule, every dropped one violates it
	mid := SelectWindow(rows, "x", "y", rd.Window{Cutoff: 33.3, Bandwidth: 7.7}, strictCoercer())
	for _, p := range mid.Points {
		assert.LessOrEqual(t, math.Abs(p.X-33.3), 7.7)
	}
	assert.Equal(t, 101, len(mid.Points)+mid.DroppedOutside)
}

func TestSelectWindow_Empty(t *testing.T) {
	sel := SelectWindow(nil, "x", "y", rd.Window{Cutoff: 0, Bandwidth: 1}, strictCoercer())
	assert.Empty(t, sel.Points)
	assert.Zero(t, sel.RowsRead)
}
