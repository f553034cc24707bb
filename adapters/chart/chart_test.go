package chart

import (
	"bytes"
	"image/png"
	"testing"

	"causelens/adapters/stats/rdfit"
	"causelens/domain/dataset"
	"causelens/domain/rd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func computePlot(t *testing.T, rows []dataset.Row) *rd.Plot {
	t.Helper()
	plot, err := rdfit.NewEngine(nil).Compute(rows, rd.Request{
		Running: "score",
		Outcome: "earnings",
		Window:  rd.Window{Cutoff: 70, Bandwidth: 15},
		Order:   rd.OrderLinear,
		Side:    rd.SideAbove,
	})
	require.NoError(t, err)
	return plot
}

func fullRows() []dataset.Row {
	return []dataset.Row{
		{"score": 60, "earnings": 10},
		{"score": 65, "earnings": 12},
		{"score": 75, "earnings": 30},
		{"score": 80, "earnings": 32},
	}
}

func TestSplitSeries(t *testing.T) {
	s := splitSeries(computePlot(t, fullRows()))
	assert.Len(t, s.ControlPoints, 2)
	assert.Len(t, s.TreatedPoints, 2)
	assert.Equal(t, rd.DefaultSampleCount, len(s.ControlCurve)+len(s.TreatedCurve))

	partial := splitSeries(computePlot(t, []dataset.Row{{"score": 75, "earnings": 30}, {"score": 80, "earnings": 32}}))
	assert.Empty(t, partial.ControlCurve)
	assert.NotEmpty(t, partial.TreatedCurve)
}

func TestEChartsRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewEChartsRenderer("")
	require.NoError(t, r.Render(&buf, computePlot(t, fullRows())))

	html := buf.String()
	assert.Contains(t, html, "Treated (Above Cutoff)")
	assert.Contains(t, html, "Control (Below Cutoff)")
	assert.Contains(t, html, "cutoff=70 bandwidth=15")
	assert.Equal(t, "text/html; charset=utf-8", r.ContentType())
}

func TestPNGRenderer(t *testing.T) {
	plots := map[string]*rd.Plot{
		"complete":     computePlot(t, fullRows()),
		"empty window": computePlot(t, []dataset.Row{{"score": 1, "earnings": 1}}),
	}

	for name, plot := range plots {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewPNGRenderer().Render(&buf, plot))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 100)
		})
	}
}

func TestSubtitle(t *testing.T) {
	plot := computePlot(t, fullRows())
	assert.Contains(t, subtitle(plot), "jump=14.000")

	partial := computePlot(t, []dataset.Row{{"score": 75, "earnings": 30}})
	assert.Contains(t, subtitle(partial), "(partial)")
}
