package testkit

import (
	"math/rand"
	"strconv"

	"causelens/adapters/excel"
	"causelens/domain/dataset"
	"causelens/domain/rd"
)

// RDGeneratorConfig configures the synthetic regression-discontinuity generator
type RDGeneratorConfig struct {
	Rows        int              `json:"rows"`
	RunningName string           `json:"running_name"`
	OutcomeName string           `json:"outcome_name"`
	Cutoff      float64          `json:"cutoff"`
	Spread      float64          `json:"spread"` // running values are uniform on cutoff±spread
	Intercept   float64          `json:"intercept"`
	Slope       float64          `json:"slope"`
	Jump        float64          `json:"jump"` // added to the outcome of treated rows
	Noise       float64          `json:"noise"`
	Side        rd.TreatmentSide `json:"side"`
	MissingRate float64          `json:"missing_rate"` // share of rows with a blank outcome
	Seed        int64            `json:"seed"`
}

// DefaultRDConfig returns a scholarship-style dataset: test score vs earnings
func DefaultRDConfig() RDGeneratorConfig {
	return RDGeneratorConfig{
		Rows:        2000,
		RunningName: "test_score",
		OutcomeName: "earnings",
		Cutoff:      70,
		Spread:      30,
		Intercept:   40000,
		Slope:       350,
		Jump:        4500,
		Noise:       2500,
		Side:        rd.SideAbove,
		MissingRate: 0.02,
		Seed:        42,
	}
}

// RDDataGenerator produces rows with a known jump at the cutoff
type RDDataGenerator struct {
	config RDGeneratorConfig
	rng    *rand.Rand
}

// NewRDDataGenerator creates a generator; the same seed yields the same rows
func NewRDDataGenerator(config RDGeneratorConfig) *RDDataGenerator {
	if config.Side == "" {
		config.Side = rd.SideAbove
	}
	return &RDDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns rows whose cells are strings, as a file would hold them.
// Each row also carries a 1-based "id" column.
func (g *RDDataGenerator) Generate() []dataset.Row {
	c := g.config
	rows := make([]dataset.Row, 0, c.Rows)

	for i := 0; i < c.Rows; i++ {
		x := c.Cutoff + (g.rng.Float64()*2-1)*c.Spread
		y := c.Intercept + c.Slope*(x-c.Cutoff) + g.rng.NormFloat64()*c.Noise
		if treated(x, c.Cutoff, c.Side) {
			y += c.Jump
		}

		row := dataset.Row{
			"id":          strconv.Itoa(i + 1),
			c.RunningName: strconv.FormatFloat(x, 'f', 3, 64),
			c.OutcomeName: strconv.FormatFloat(y, 'f', 2, 64),
		}
		if g.rng.Float64() < c.MissingRate {
			row[c.OutcomeName] = ""
		}
		rows = append(rows, row)
	}
	return rows
}

// Table wraps generated rows with a stable header order
func (g *RDDataGenerator) Table() *excel.Table {
	return &excel.Table{
		Headers: []string{"id", g.config.RunningName, g.config.OutcomeName},
		Rows:    g.Generate(),
	}
}

// WriteFile writes a generated dataset as CSV or XLSX
func (g *RDDataGenerator) WriteFile(path string) error {
	return excel.WriteFile(path, g.Table())
}

func treated(x, cutoff float64, side rd.TreatmentSide) bool {
	if side == rd.SideBelow {
		return x < cutoff
	}
	return x >= cutoff
}
