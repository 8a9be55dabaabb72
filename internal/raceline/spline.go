package raceline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/apexdata/trackline/internal/geo"
)

// ErrDegenerateGeometry is returned when the centerline collapses below the
// minimum point count a cubic fit needs. No partial output accompanies it.
var ErrDegenerateGeometry = errors.New("insufficient unique points for curve fit")

// minUniquePoints is the cubic-order floor: a closed cubic needs at least
// four distinct support points.
const minUniquePoints = 4

// minPointSpacing is the dedup threshold in meters; closer input points
// would make the chord parameterization degenerate.
const minPointSpacing = 0.1

// closedCurve is a closed C2 parametric curve through a point loop,
// parameterized by chord length over one full period.
//
// gonum's cubic splines are open, so periodicity is emulated by padding the
// sample window cyclically on both sides before fitting and evaluating only
// inside the central period. The padding margin keeps the natural-spline
// end conditions far enough from the seam that the curve is smooth across it
// to well below solver tolerance.
type closedCurve struct {
	x, y   interp.NaturalCubic
	period float64
}

// dedupe drops points closer than minPointSpacing to their kept predecessor,
// and a trailing point that would coincide with the first across the closing
// segment.
func dedupe(xs, ys []float64) ([]float64, []float64) {
	if len(xs) == 0 {
		return nil, nil
	}
	outX := []float64{xs[0]}
	outY := []float64{ys[0]}
	for i := 1; i < len(xs); i++ {
		last := geo.Point{X: outX[len(outX)-1], Y: outY[len(outY)-1]}
		if geo.Distance(last, geo.Point{X: xs[i], Y: ys[i]}) >= minPointSpacing {
			outX = append(outX, xs[i])
			outY = append(outY, ys[i])
		}
	}
	for len(outX) > 1 {
		last := geo.Point{X: outX[len(outX)-1], Y: outY[len(outY)-1]}
		if geo.Distance(last, geo.Point{X: outX[0], Y: outY[0]}) >= minPointSpacing {
			break
		}
		outX = outX[:len(outX)-1]
		outY = outY[:len(outY)-1]
	}
	return outX, outY
}

// fitClosedCurve fits a closed cubic through the (already deduplicated)
// loop. On a fit failure it retries once with lightly smoothed coordinates
// before propagating the error.
func fitClosedCurve(xs, ys []float64) (*closedCurve, error) {
	c, err := fitClosedCurveExact(xs, ys)
	if err == nil {
		return c, nil
	}
	smoothX := geo.GaussianSmooth(xs, 2.0, geo.Wrap)
	smoothY := geo.GaussianSmooth(ys, 2.0, geo.Wrap)
	smoothX, smoothY = dedupe(smoothX, smoothY)
	if len(smoothX) < minUniquePoints {
		return nil, ErrDegenerateGeometry
	}
	c, retryErr := fitClosedCurveExact(smoothX, smoothY)
	if retryErr != nil {
		return nil, fmt.Errorf("closed curve fit: %w", err)
	}
	return c, nil
}

func fitClosedCurveExact(xs, ys []float64) (*closedCurve, error) {
	n := len(xs)
	if n < minUniquePoints {
		return nil, ErrDegenerateGeometry
	}

	// Chord-length parameterization including the closing segment.
	params := make([]float64, n)
	for i := 1; i < n; i++ {
		params[i] = params[i-1] + geo.Distance(
			geo.Point{X: xs[i-1], Y: ys[i-1]},
			geo.Point{X: xs[i], Y: ys[i]},
		)
	}
	period := params[n-1] + geo.Distance(
		geo.Point{X: xs[n-1], Y: ys[n-1]},
		geo.Point{X: xs[0], Y: ys[0]},
	)
	if period <= 0 {
		return nil, ErrDegenerateGeometry
	}

	margin := n / 10
	if margin < 8 {
		margin = 8
	}
	if margin > n {
		margin = n
	}

	padded := make([]float64, 0, n+2*margin)
	padX := make([]float64, 0, n+2*margin)
	padY := make([]float64, 0, n+2*margin)
	for i := n - margin; i < n; i++ {
		padded = append(padded, params[i]-period)
		padX = append(padX, xs[i])
		padY = append(padY, ys[i])
	}
	padded = append(padded, params...)
	padX = append(padX, xs...)
	padY = append(padY, ys...)
	for i := 0; i < margin; i++ {
		padded = append(padded, params[i]+period)
		padX = append(padX, xs[i])
		padY = append(padY, ys[i])
	}

	var c closedCurve
	c.period = period
	if err := c.x.Fit(padded, padX); err != nil {
		return nil, err
	}
	if err := c.y.Fit(padded, padY); err != nil {
		return nil, err
	}
	return &c, nil
}

// wrap maps u into [0, period).
func (c *closedCurve) wrap(u float64) float64 {
	u = u - float64(int(u/c.period))*c.period
	if u < 0 {
		u += c.period
	}
	return u
}

// At evaluates the curve position.
func (c *closedCurve) At(u float64) (float64, float64) {
	u = c.wrap(u)
	return c.x.Predict(u), c.y.Predict(u)
}

// Derivatives returns the first and second parametric derivatives at u. The
// first comes from the spline directly; the second by central difference of
// the first, exact to rounding for a cubic away from knots.
func (c *closedCurve) Derivatives(u float64) (dx, dy, d2x, d2y float64) {
	const h = 0.05
	u = c.wrap(u)
	dx = c.x.PredictDerivative(u)
	dy = c.y.PredictDerivative(u)
	d2x = (c.x.PredictDerivative(u+h) - c.x.PredictDerivative(u-h)) / (2 * h)
	d2y = (c.y.PredictDerivative(u+h) - c.y.PredictDerivative(u-h)) / (2 * h)
	return dx, dy, d2x, d2y
}
