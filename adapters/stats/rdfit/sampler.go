package rdfit

import (
	"causelens/domain/rd"
)

// SamplePositions returns n evenly spaced x values spanning the window,
// both edges included exactly.
func SamplePositions(w rd.Window, n int) []float64 {
	if n < 2 {
		return nil
	}
	step := (2 * w.Bandwidth) / float64(n-1)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = w.Lower() + float64(i)*step
	}
	// pin the right edge against accumulated rounding
	xs[n-1] = w.Upper()
	return xs
}

// SampleCurve evaluates the side fits at n positions. Each sample is assigned
// to a side with IsTreated, and only that side's value is set; an empty side
// leaves its value nil so the chart draws a gap instead of a line at zero.
func SampleCurve(w rd.Window, side rd.TreatmentSide, control, treated rd.SideFit, n int) []rd.FittedCurvePoint {
	xs := SamplePositions(w, n)
	curve := make([]rd.FittedCurvePoint, len(xs))

	for i, x := range xs {
		pt := rd.FittedCurvePoint{X: x}
		if IsTreated(x, w.Cutoff, side) {
			if y, ok := treated.Eval(x); ok {
				pt.YTreated = &y
			}
		} else {
			if y, ok := control.Eval(x); ok {
				pt.YControl = &y
			}
		}
		curve[i] = pt
	}

	return curve
}
