// Package rd holds the value types of the regression-discontinuity plot:
// windowed scatter points, per-side local fits and the sampled fitted curve.
// Every value is derived from a request and rows; nothing here is persisted.
package rd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"causelens/domain/core"
)

// DefaultSampleCount is the number of x positions sampled across the window.
const DefaultSampleCount = 50

// TreatmentSide says which side of the cutoff receives treatment
type TreatmentSide string

const (
	SideAbove TreatmentSide = "above" // running >= cutoff is treated
	SideBelow TreatmentSide = "below" // running < cutoff is treated
)

// ParseTreatmentSide parses "above" or "below"; empty defaults to above.
func ParseTreatmentSide(s string) (TreatmentSide, error) {
	switch TreatmentSide(strings.ToLower(strings.TrimSpace(s))) {
	case "", SideAbove:
		return SideAbove, nil
	case SideBelow:
		return SideBelow, nil
	}
	return "", core.NewInvalidRequestError("treatment_side", fmt.Sprintf("must be above or below, got %q", s))
}

// Valid reports whether the side is one of the known policies
func (s TreatmentSide) Valid() bool {
	return s == SideAbove || s == SideBelow
}

// LegendLabels are the series names a chart shows for a side policy
type LegendLabels struct {
	Treated string `json:"treated"`
	Control string `json:"control"`
}

// Labels derives legend labels from the policy alone
func (s TreatmentSide) Labels() LegendLabels {
	if s == SideBelow {
		return LegendLabels{Treated: "Treated (Below Cutoff)", Control: "Control (Above Cutoff)"}
	}
	return LegendLabels{Treated: "Treated (Above Cutoff)", Control: "Control (Below Cutoff)"}
}

// PolynomialOrder is the degree of the local fit
type PolynomialOrder int

const (
	OrderLinear    PolynomialOrder = 1
	OrderQuadratic PolynomialOrder = 2
)

// ParsePolynomialOrder parses "1" or "2"; empty defaults to linear.
func ParsePolynomialOrder(s string) (PolynomialOrder, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OrderLinear, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !PolynomialOrder(n).Valid() {
		return 0, core.NewInvalidRequestError("order", fmt.Sprintf("must be 1 or 2, got %q", s))
	}
	return PolynomialOrder(n), nil
}

// Valid reports whether the order is supported
func (o PolynomialOrder) Valid() bool {
	return o == OrderLinear || o == OrderQuadratic
}

// MinPoints is the number of points a side needs before a regression is attempted
func (o PolynomialOrder) MinPoints() int {
	return int(o) + 1
}

// Window is the inclusion range [cutoff-bandwidth, cutoff+bandwidth]
type Window struct {
	Cutoff    float64 `json:"cutoff"`
	Bandwidth float64 `json:"bandwidth"`
}

// Lower returns the left edge of the window
func (w Window) Lower() float64 { return w.Cutoff - w.Bandwidth }

// Upper returns the right edge of the window
func (w Window) Upper() float64 { return w.Cutoff + w.Bandwidth }

// Contains reports whether x lies inside the window, edges included
func (w Window) Contains(x float64) bool {
	return math.Abs(x-w.Cutoff) <= w.Bandwidth
}

// Validate checks the window invariants
func (w Window) Validate() error {
	if math.IsNaN(w.Cutoff) || math.IsInf(w.Cutoff, 0) {
		return core.NewInvalidRequestError("cutoff", "must be a finite number")
	}
	if math.IsNaN(w.Bandwidth) || math.IsInf(w.Bandwidth, 0) || w.Bandwidth <= 0 {
		return core.NewInvalidRequestError("bandwidth", "must be a finite number greater than zero")
	}
	return nil
}

// ScatterPoint is one windowed row
type ScatterPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Treated bool    `json:"treated"`
}

// FittedCurvePoint is one curve sample. Exactly one of YControl / YTreated is
// set, or neither when that side has no points.
type FittedCurvePoint struct {
	X        float64  `json:"x"`
	YControl *float64 `json:"y_control,omitempty"`
	YTreated *float64 `json:"y_treated,omitempty"`
}

// FitKind tags the outcome of a side fit
type FitKind string

const (
	FitKindFitted     FitKind = "fitted"     // regression coefficients available
	FitKindDegenerate FitKind = "degenerate" // too few points, flat at the side mean
	FitKindEmpty      FitKind = "empty"      // no points on this side
)

// SideFit is the local polynomial fit of one side, centered at the cutoff.
// Coefficients are in ascending powers of (x - cutoff).
type SideFit struct {
	Kind         FitKind         `json:"kind"`
	Order        PolynomialOrder `json:"order"`
	Degree       int             `json:"degree"`
	N            int             `json:"n"`
	Mean         float64         `json:"mean"`
	Cutoff       float64         `json:"cutoff"`
	Coefficients []float64       `json:"coefficients,omitempty"`
}

// Eval evaluates the fit at x. ok is false only for an empty side.
func (f SideFit) Eval(x float64) (y float64, ok bool) {
	switch f.Kind {
	case FitKindEmpty:
		return 0, false
	case FitKindDegenerate:
		return f.Mean, true
	}
	dx := x - f.Cutoff
	// Horner over ascending coefficients
	for i := len(f.Coefficients) - 1; i >= 0; i-- {
		y = y*dx + f.Coefficients[i]
	}
	return y, true
}

// Intercept is the fitted value at the cutoff
func (f SideFit) Intercept() float64 {
	if f.Kind == FitKindFitted && len(f.Coefficients) > 0 {
		return f.Coefficients[0]
	}
	return f.Mean
}

// Slope is the linear coefficient; zero for degenerate and empty sides
func (f SideFit) Slope() float64 {
	if f.Kind == FitKindFitted && len(f.Coefficients) > 1 {
		return f.Coefficients[1]
	}
	return 0
}

// Status summarizes how complete a plot is
type Status string

const (
	StatusNoRows      Status = "no_rows"      // the row source returned nothing
	StatusEmptyWindow Status = "empty_window" // no usable rows inside the bandwidth
	StatusPartial     Status = "partial"      // a side is empty or too sparse to fit
	StatusComplete    Status = "complete"
)

// Request carries the immutable inputs of one rendering pass
type Request struct {
	Running string          `json:"running"`
	Outcome string          `json:"outcome"`
	Window  Window          `json:"window"`
	Order   PolynomialOrder `json:"order"`
	Side    TreatmentSide   `json:"side"`
	Samples int             `json:"samples"`
}

// Validate checks every field of the request
func (r Request) Validate() error {
	if strings.TrimSpace(r.Running) == "" {
		return core.NewInvalidRequestError("running", "variable is required")
	}
	if strings.TrimSpace(r.Outcome) == "" {
		return core.NewInvalidRequestError("outcome", "variable is required")
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if !r.Order.Valid() {
		return core.NewInvalidRequestError("order", fmt.Sprintf("must be 1 or 2, got %d", r.Order))
	}
	if !r.Side.Valid() {
		return core.NewInvalidRequestError("treatment_side", fmt.Sprintf("must be above or below, got %q", r.Side))
	}
	if r.Samples != 0 && r.Samples < 2 {
		return core.NewInvalidRequestError("samples", "must be at least 2")
	}
	return nil
}

// SampleCount returns the configured sample count or the default
func (r Request) SampleCount() int {
	if r.Samples == 0 {
		return DefaultSampleCount
	}
	return r.Samples
}

// Plot is the full output of one rendering pass
type Plot struct {
	Request           Request            `json:"request"`
	Status            Status             `json:"status"`
	Points            []ScatterPoint     `json:"points"`
	Curve             []FittedCurvePoint `json:"curve"`
	Control           SideFit            `json:"control"`
	Treated           SideFit            `json:"treated"`
	Labels            LegendLabels       `json:"labels"`
	RowsRead          int                `json:"rows_read"`
	RowsInWindow      int                `json:"rows_in_window"`
	DroppedNonNumeric int                `json:"dropped_non_numeric"`
	DroppedOutside    int                `json:"dropped_outside"`
	Discontinuity     *float64           `json:"discontinuity,omitempty"`
	Estimate          *Estimate          `json:"estimate,omitempty"`
	ComputedAt        time.Time          `json:"computed_at"`
}

// HasCurve reports whether at least one side produced curve values
func (p *Plot) HasCurve() bool {
	return p.Status == StatusPartial || p.Status == StatusComplete
}

// Estimate is the authoritative RD estimate reported by the analysis backend.
// It is passed through untouched; Bandwidth is the one the chart must use.
type Estimate struct {
	AnalysisID    core.AnalysisID `json:"analysis_id" db:"analysis_id"`
	DatasetName   string          `json:"dataset_name" db:"dataset_name"`
	Running       string          `json:"running" db:"running"`
	Outcome       string          `json:"outcome" db:"outcome"`
	Cutoff        float64         `json:"cutoff" db:"cutoff"`
	Bandwidth     float64         `json:"bandwidth" db:"bandwidth"`
	Order         PolynomialOrder `json:"order" db:"poly_order"`
	Kernel        string          `json:"kernel" db:"kernel"`
	TreatmentSide TreatmentSide   `json:"treatment_side" db:"treatment_side"`
	Effect        float64         `json:"effect" db:"effect"`
	StdError      float64         `json:"std_error" db:"std_error"`
	PValue        float64         `json:"p_value" db:"p_value"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
