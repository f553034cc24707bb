// Package chart renders computed RD plots: an interactive go-echarts page and
// a static gonum/plot PNG. Both draw the same four series.
package chart

import (
	"fmt"

	"causelens/domain/rd"
)

// xy is one drawable point
type xy struct{ X, Y float64 }

// series is the plot split into drawable groups. Curve groups hold only the
// samples that carry a value, so an empty side yields no line at all.
type series struct {
	ControlPoints []xy
	TreatedPoints []xy
	ControlCurve  []xy
	TreatedCurve  []xy
}

func splitSeries(plot *rd.Plot) series {
	var s series
	for _, p := range plot.Points {
		if p.Treated {
			s.TreatedPoints = append(s.TreatedPoints, xy{p.X, p.Y})
		} else {
			s.ControlPoints = append(s.ControlPoints, xy{p.X, p.Y})
		}
	}
	for _, c := range plot.Curve {
		if c.YControl != nil {
			s.ControlCurve = append(s.ControlCurve, xy{c.X, *c.YControl})
		}
		if c.YTreated != nil {
			s.TreatedCurve = append(s.TreatedCurve, xy{c.X, *c.YTreated})
		}
	}
	return s
}

func title(plot *rd.Plot) string {
	return fmt.Sprintf("Regression Discontinuity: %s by %s", plot.Request.Outcome, plot.Request.Running)
}

func subtitle(plot *rd.Plot) string {
	w := plot.Request.Window
	text := fmt.Sprintf("cutoff=%g bandwidth=%g order=%d n=%d", w.Cutoff, w.Bandwidth, plot.Request.Order, plot.RowsInWindow)
	if plot.Discontinuity != nil {
		text += fmt.Sprintf(" jump=%.3f", *plot.Discontinuity)
	}
	if plot.Status != rd.StatusComplete {
		text += " (" + string(plot.Status) + ")"
	}
	return text
}
