package testkit

import (
	"path/filepath"
	"testing"

	"causelens/adapters/excel"
	"causelens/adapters/stats/rdfit"
	"causelens/domain/rd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDDataGenerator_Deterministic(t *testing.T) {
	cfg := DefaultRDConfig()
	cfg.Rows = 100

	a := NewRDDataGenerator(cfg).Generate()
	b := NewRDDataGenerator(cfg).Generate()
	assert.Equal(t, a, b)
	assert.Len(t, a, 100)
}

func TestRDDataGenerator_RecoversJump(t *testing.T) {
	cfg := DefaultRDConfig()
	cfg.Rows = 4000
	cfg.Noise = 0
	cfg.MissingRate = 0

	rows := NewRDDataGenerator(cfg).Generate()
	plot, err := rdfit.NewEngine(nil).Compute(rows, rd.Request{
		Running: cfg.RunningName,
		Outcome: cfg.OutcomeName,
		Window:  rd.Window{Cutoff: cfg.Cutoff, Bandwidth: 10},
		Order:   rd.OrderLinear,
		Side:    rd.SideAbove,
	})
	require.NoError(t, err)
	require.Equal(t, rd.StatusComplete, plot.Status)
	require.NotNil(t, plot.Discontinuity)
	// cells are rounded to 3 and 2 decimals
	assert.InDelta(t, cfg.Jump, *plot.Discontinuity, 5)
	assert.InDelta(t, cfg.Slope, plot.Control.Slope(), 1)
}

func TestRDDataGenerator_MissingOutcomes(t *testing.T) {
	cfg := DefaultRDConfig()
	cfg.Rows = 500
	cfg.MissingRate = 1

	for _, row := range NewRDDataGenerator(cfg).Generate() {
		assert.Equal(t, "", row[cfg.OutcomeName])
	}
}

func TestRDDataGenerator_WriteFile(t *testing.T) {
	cfg := DefaultRDConfig()
	cfg.Rows = 25
	path := filepath.Join(t.TempDir(), "synthetic.csv")

	require.NoError(t, NewRDDataGenerator(cfg).WriteFile(path))

	table, err := excel.NewDataReader(path).ReadData(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "test_score", "earnings"}, table.Headers)
	assert.Len(t, table.Rows, 25)
}
