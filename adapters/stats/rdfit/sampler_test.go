package rdfit

import (
	"testing"

	"causelens/domain/rd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplePositions_CountAndSpan(t *testing.T) {
	windows := []rd.Window{
		{Cutoff: 70, Bandwidth: 15},
		{Cutoff: -0.3, Bandwidth: 0.1},
		{Cutoff: 1e6, Bandwidth: 12345.678},
	}

	for _, w := range windows {
		xs := SamplePositions(w, rd.DefaultSampleCount)
		require.Len(t, xs, 50)
		assert.Equal(t, w.Cutoff-w.Bandwidth, xs[0])
		assert.Equal(t, w.Cutoff+w.Bandwidth, xs[49])

		step := 2 * w.Bandwidth / 49
		for i := 1; i < len(xs); i++ {
			assert.InDelta(t, step, xs[i]-xs[i-1], step*1e-6)
		}
	}

	assert.Nil(t, SamplePositions(rd.Window{Cutoff: 0, Bandwidth: 1}, 1))
}

func TestSampleCurve_SideAssignment(t *testing.T) {
	w := rd.Window{Cutoff: 0, Bandwidth: 1}
	control := rd.SideFit{Kind: rd.FitKindDegenerate, Mean: -1}
	treated := rd.SideFit{Kind: rd.FitKindDegenerate, Mean: 1}

	// odd sample count puts a sample exactly on the cutoff
	curve := SampleCurve(w, rd.SideAbove, control, treated, 5)
	require.Len(t, curve, 5)
	for _, pt := range curve {
		exactlyOne := (pt.YControl == nil) != (pt.YTreated == nil)
		assert.True(t, exactlyOne, "x=%v", pt.X)
		if pt.X >= 0 {
			require.NotNil(t, pt.YTreated)
			assert.Equal(t, 1.0, *pt.YTreated)
		} else {
			require.NotNil(t, pt.YControl)
			assert.Equal(t, -1.0, *pt.YControl)
		}
	}

	below := SampleCurve(w, rd.SideBelow, control, treated, 5)
	assert.Equal(t, 0.0, below[2].X)
	assert.Nil(t, below[2].YTreated)
	require.NotNil(t, below[2].YControl)
}

func TestSampleCurve_EmptySideLeavesGap(t *testing.T) {
	w := rd.Window{Cutoff: 10, Bandwidth: 2}
	control := rd.SideFit{Kind: rd.FitKindEmpty}
	treated := rd.SideFit{Kind: rd.FitKindFitted, Cutoff: 10, Coefficients: []float64{3, 1}}

	curve := SampleCurve(w, rd.SideAbove, control, treated, rd.DefaultSampleCount)
	for _, pt := range curve {
		assert.Nil(t, pt.YControl, "control must stay unset at x=%v", pt.X)
		if pt.X < 10 {
			assert.Nil(t, pt.YTreated)
		} else {
			require.NotNil(t, pt.YTreated)
			assert.InDelta(t, 3+(pt.X-10), *pt.YTreated, 1e-9)
		}
	}
}
