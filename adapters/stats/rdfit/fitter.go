package rdfit

import (
	"math"

	"causelens/domain/rd"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the design condition number accepted for a polynomial fit
const maxCondition = 1e12

// FitSide fits a local polynomial to one side's points, centered at the cutoff.
//
// A side with no points is FitKindEmpty. A side with fewer than order+1 points
// is FitKindDegenerate and evaluates to its mean everywhere. Otherwise the fit
// is ordinary least squares on x-cutoff: closed form for order 1, QR for
// order 2. A rank-deficient quadratic design (too few distinct x) falls back
// to the linear fit.
func FitSide(points []rd.ScatterPoint, cutoff float64, order rd.PolynomialOrder) rd.SideFit {
	fit := rd.SideFit{
		Kind:   rd.FitKindEmpty,
		Order:  order,
		N:      len(points),
		Cutoff: cutoff,
	}
	if len(points) == 0 {
		return fit
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X - cutoff
		ys[i] = p.Y
	}

	meanY, _ := stats.Mean(ys)
	fit.Mean = meanY

	if len(points) < order.MinPoints() {
		fit.Kind = rd.FitKindDegenerate
		return fit
	}

	fit.Kind = rd.FitKindFitted
	if order == rd.OrderQuadratic {
		if coef, ok := fitPolynomial(xs, ys, 2); ok {
			fit.Degree = 2
			fit.Coefficients = coef
			return fit
		}
	}

	fit.Degree = 1
	fit.Coefficients = fitLinear(xs, ys, meanY)
	return fit
}

// fitLinear returns [intercept, slope] for centered xs. A zero x spread
// yields slope 0 and intercept mean(y).
func fitLinear(xs, ys []float64, meanY float64) []float64 {
	meanX, _ := stats.Mean(xs)

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}

	slope := 0.0
	if sxx != 0 {
		slope = sxy / sxx
	}
	return []float64{meanY - slope*meanX, slope}
}

// fitPolynomial solves the least-squares problem for ascending powers
// 0..degree. ok is false when the design is singular or ill-conditioned.
func fitPolynomial(xs, ys []float64, degree int) ([]float64, bool) {
	n := len(xs)
	cols := degree + 1
	if n < cols || distinct(xs) < cols {
		return nil, false
	}

	design := mat.NewDense(n, cols, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j < cols; j++ {
			design.Set(i, j, v)
			v *= x
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	if qr.Cond() > maxCondition {
		return nil, false
	}

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, mat.NewVecDense(n, ys)); err != nil {
		return nil, false
	}

	out := make([]float64, cols)
	for j := range out {
		out[j] = coef.AtVec(j)
		if math.IsNaN(out[j]) || math.IsInf(out[j], 0) {
			return nil, false
		}
	}
	return out, true
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
