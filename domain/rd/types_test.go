package rd

import (
	"math"
	"testing"

	"causelens/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTreatmentSide(t *testing.T) {
	tests := []struct {
		input    string
		expected TreatmentSide
		hasError bool
	}{
		{"above", SideAbove, false},
		{"BELOW", SideBelow, false},
		{"", SideAbove, false},
		{"left", "", true},
	}

	for _, test := range tests {
		side, err := ParseTreatmentSide(test.input)
		if test.hasError {
			assert.Error(t, err, test.input)
			assert.True(t, core.IsInvalidRequestError(err))
			continue
		}
		require.NoError(t, err, test.input)
		assert.Equal(t, test.expected, side)
	}
}

func TestParsePolynomialOrder(t *testing.T) {
	order, err := ParsePolynomialOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderLinear, order)

	order, err = ParsePolynomialOrder("2")
	require.NoError(t, err)
	assert.Equal(t, OrderQuadratic, order)
	assert.Equal(t, 3, order.MinPoints())

	_, err = ParsePolynomialOrder("3")
	assert.True(t, core.IsInvalidRequestError(err))
	_, err = ParsePolynomialOrder("one")
	assert.Error(t, err)
}

func TestLegendLabels(t *testing.T) {
	assert.Equal(t, "Treated (Above Cutoff)", SideAbove.Labels().Treated)
	assert.Equal(t, "Control (Below Cutoff)", SideAbove.Labels().Control)
	assert.Equal(t, "Treated (Below Cutoff)", SideBelow.Labels().Treated)
	assert.Equal(t, "Control (Above Cutoff)", SideBelow.Labels().Control)
}

func TestWindow(t *testing.T) {
	w := Window{Cutoff: 70, Bandwidth: 15}
	assert.Equal(t, 55.0, w.Lower())
	assert.Equal(t, 85.0, w.Upper())
	assert.True(t, w.Contains(55))
	assert.True(t, w.Contains(85))
	assert.False(t, w.Contains(85.0001))
	assert.NoError(t, w.Validate())

	for _, bad := range []Window{
		{Cutoff: 0, Bandwidth: 0},
		{Cutoff: 0, Bandwidth: -1},
		{Cutoff: math.NaN(), Bandwidth: 1},
		{Cutoff: 0, Bandwidth: math.Inf(1)},
	} {
		assert.Error(t, bad.Validate(), "%+v", bad)
	}
}

func TestSideFitEval(t *testing.T) {
	fitted := SideFit{Kind: FitKindFitted, Cutoff: 10, Coefficients: []float64{2, 0.5, 0.25}}
	y, ok := fitted.Eval(12)
	require.True(t, ok)
	// 2 + 0.5*2 + 0.25*4
	assert.InDelta(t, 4.0, y, 1e-12)
	assert.Equal(t, 2.0, fitted.Intercept())
	assert.Equal(t, 0.5, fitted.Slope())

	degenerate := SideFit{Kind: FitKindDegenerate, Mean: 7}
	y, ok = degenerate.Eval(-100)
	require.True(t, ok)
	assert.Equal(t, 7.0, y)
	assert.Equal(t, 7.0, degenerate.Intercept())
	assert.Equal(t, 0.0, degenerate.Slope())

	_, ok = SideFit{Kind: FitKindEmpty}.Eval(0)
	assert.False(t, ok)
}

func TestRequestValidate(t *testing.T) {
	valid := Request{
		Running: "score",
		Outcome: "earnings",
		Window:  Window{Cutoff: 50, Bandwidth: 5},
		Order:   OrderLinear,
		Side:    SideAbove,
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, DefaultSampleCount, valid.SampleCount())

	cases := map[string]func(r *Request){
		"missing running": func(r *Request) { r.Running = " " },
		"missing outcome": func(r *Request) { r.Outcome = "" },
		"zero bandwidth":  func(r *Request) { r.Window.Bandwidth = 0 },
		"bad order":       func(r *Request) { r.Order = 3 },
		"bad side":        func(r *Request) { r.Side = "left" },
		"one sample":      func(r *Request) { r.Samples = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, core.IsInvalidRequestError(err))
		})
	}
}
