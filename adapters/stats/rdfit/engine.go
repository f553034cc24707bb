// Package rdfit computes the regression-discontinuity plot: it windows raw
// rows around the cutoff, splits them by treatment side, fits a local
// polynomial per side and samples the fitted curve across the window.
//
// The fit is an unweighted (uniform window) least squares, so it is a visual
// aid and will not match a triangular-kernel estimate near the window edges.
package rdfit

import (
	"time"

	"causelens/adapters/datareadiness/coercer"
	"causelens/domain/dataset"
	"causelens/domain/rd"
	"causelens/internal/errors"
)

// Engine runs the window -> partition -> fit -> sample pipeline.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	coercer *coercer.NumericCoercer
}

// NewEngine creates an engine; a nil coercer means strict numeric parsing
func NewEngine(c *coercer.NumericCoercer) *Engine {
	if c == nil {
		c = coercer.NewNumericCoercer(coercer.DefaultCoercionConfig())
	}
	return &Engine{coercer: c}
}

// Compute builds the plot for rows under req. The only error is an invalid
// request; missing or sparse data is reported through Plot.Status.
func (e *Engine) Compute(rows []dataset.Row, req rd.Request) (*rd.Plot, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	cutoff := req.Window.Cutoff
	plot := &rd.Plot{
		Request:    req,
		Points:     []rd.ScatterPoint{},
		Curve:      []rd.FittedCurvePoint{},
		Labels:     req.Side.Labels(),
		RowsRead:   len(rows),
		Control:    FitSide(nil, cutoff, req.Order),
		Treated:    FitSide(nil, cutoff, req.Order),
		ComputedAt: time.Now().UTC(),
	}

	if len(rows) == 0 {
		plot.Status = rd.StatusNoRows
		return plot, nil
	}

	sel := SelectWindow(rows, req.Running, req.Outcome, req.Window, e.coercer)
	plot.RowsInWindow = len(sel.Points)
	plot.DroppedNonNumeric = sel.DroppedNonNumeric
	plot.DroppedOutside = sel.DroppedOutside

	if len(sel.Points) == 0 {
		plot.Status = rd.StatusEmptyWindow
		return plot, nil
	}

	labeled, control, treated := Partition(sel.Points, cutoff, req.Side)
	plot.Points = labeled
	plot.Control = FitSide(control, cutoff, req.Order)
	plot.Treated = FitSide(treated, cutoff, req.Order)
	plot.Curve = SampleCurve(req.Window, req.Side, plot.Control, plot.Treated, req.SampleCount())
	plot.Status = statusOf(plot.Control, plot.Treated)

	if yt, ok := plot.Treated.Eval(cutoff); ok {
		if yc, ok := plot.Control.Eval(cutoff); ok {
			jump := yt - yc
			plot.Discontinuity = &jump
		}
	}

	return plot, nil
}

func statusOf(control, treated rd.SideFit) rd.Status {
	if control.Kind == rd.FitKindFitted && treated.Kind == rd.FitKindFitted {
		return rd.StatusComplete
	}
	return rd.StatusPartial
}
