// Package raceline derives the theoretically fastest path around a finished
// track model: a curvature-based racing offset from the centerline and a
// two-pass acceleration/braking-limited speed profile.
package raceline

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/apexdata/trackline/internal/geo"
	"github.com/apexdata/trackline/internal/track"
	"github.com/apexdata/trackline/internal/vehicle"
	"github.com/apexdata/trackline/internal/weather"
)

const gravity = 9.81

// Config tunes the line generator. Zero values fall back to the defaults
// the solver was calibrated with.
type Config struct {
	// N is the output resolution in points.
	N int
	// CurvatureSigma smooths centerline curvature before offsets are
	// derived.
	CurvatureSigma float64
	// OffsetSigma smooths the lateral offset sequence.
	OffsetSigma float64
	// RaceCurvatureSigma smooths the racing line's own curvature.
	RaceCurvatureSigma float64
	// OffsetGain converts curvature into lateral offset meters.
	OffsetGain float64
	// MaxOffsetFraction caps the offset at this fraction of half the track
	// width.
	MaxOffsetFraction float64
	// MinCurvature floors curvature to avoid dividing by zero on straights.
	MinCurvature float64
}

// DefaultConfig returns the calibrated generator settings.
func DefaultConfig() Config {
	return Config{
		N:                  2000,
		CurvatureSigma:     15,
		OffsetSigma:        20,
		RaceCurvatureSigma: 10,
		OffsetGain:         800,
		MaxOffsetFraction:  0.9,
		MinCurvature:       1e-6,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.N <= 0 {
		c.N = def.N
	}
	if c.CurvatureSigma <= 0 {
		c.CurvatureSigma = def.CurvatureSigma
	}
	if c.OffsetSigma <= 0 {
		c.OffsetSigma = def.OffsetSigma
	}
	if c.RaceCurvatureSigma <= 0 {
		c.RaceCurvatureSigma = def.RaceCurvatureSigma
	}
	if c.OffsetGain <= 0 {
		c.OffsetGain = def.OffsetGain
	}
	if c.MaxOffsetFraction <= 0 {
		c.MaxOffsetFraction = def.MaxOffsetFraction
	}
	if c.MinCurvature <= 0 {
		c.MinCurvature = def.MinCurvature
	}
}

// Point is one sample of the computed racing line. Grip and LapTime repeat
// the result-level scalars on every point so the sequence is
// self-describing when serialized.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Dist      float64 `json:"dist"`
	Speed     float64 `json:"speed"`
	Curvature float64 `json:"curvature"`
	Grip      float64 `json:"grip_coefficient"`
	LapTime   float64 `json:"lap_time"`
}

// Result is the computed optimal line.
type Result struct {
	Points  []Point `json:"points"`
	Grip    float64 `json:"grip_coefficient"`
	LapTime float64 `json:"lap_time_seconds"`
}

// Generate computes the optimal racing line for a finished track model under
// the given vehicle and weather. The model is not modified.
func Generate(model *track.Model, veh vehicle.Config, wx weather.Config, cfg Config) (*Result, error) {
	if err := veh.Validate(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	n := cfg.N

	grip := ComputeGrip(veh, wx)
	log.Printf("[OptimalLine] track %.1fm, grip %.2f, %d output points",
		model.TotalLength, grip, n)

	// Deduplicate the centerline; a cubic fit needs distinct support.
	rawX := make([]float64, len(model.Points))
	rawY := make([]float64, len(model.Points))
	for i, p := range model.Points {
		rawX[i] = p.X
		rawY[i] = p.Y
	}
	xs, ys := dedupe(rawX, rawY)
	if len(xs) < minUniquePoints {
		return nil, fmt.Errorf("%w: %d of %d points distinct", ErrDegenerateGeometry, len(xs), len(rawX))
	}

	curve, err := fitClosedCurve(xs, ys)
	if err != nil {
		return nil, err
	}

	// Resample the centerline at uniform parameter steps with tangents,
	// normals, and curvature.
	centerX := make([]float64, n)
	centerY := make([]float64, n)
	normalX := make([]float64, n)
	normalY := make([]float64, n)
	curvature := make([]float64, n)
	for i := 0; i < n; i++ {
		u := float64(i) * curve.period / float64(n)
		centerX[i], centerY[i] = curve.At(u)
		dx, dy, d2x, d2y := curve.Derivatives(u)
		tangentLen := math.Hypot(dx, dy)
		if tangentLen == 0 {
			tangentLen = 1
		}
		// Unit normal is the unit tangent rotated 90 degrees CCW.
		normalX[i] = -dy / tangentLen
		normalY[i] = dx / tangentLen
		curvature[i] = math.Abs(dx*d2y-dy*d2x) / (tangentLen * tangentLen * tangentLen)
	}
	curvature = geo.GaussianSmooth(curvature, cfg.CurvatureSigma, geo.Wrap)

	dist := make([]float64, n)
	for i := 1; i < n; i++ {
		dist[i] = dist[i-1] + math.Hypot(centerX[i]-centerX[i-1], centerY[i]-centerY[i-1])
	}

	// Lateral offsets: outside on entry/exit, inside at apex, scaled by the
	// available grip and capped by the track width.
	maxOffset := model.MeanWidth() / 2 * cfg.MaxOffsetFraction
	gripRatio := grip / veh.TireFrictionDry
	offsets := make([]float64, n)
	for i := range offsets {
		mag := math.Min(math.Abs(curvature[i])*cfg.OffsetGain*gripRatio, maxOffset)
		offsets[i] = -sign(curvature[i]) * mag
	}
	offsets = geo.GaussianSmooth(offsets, cfg.OffsetSigma, geo.Wrap)

	raceX := make([]float64, n)
	raceY := make([]float64, n)
	for i := 0; i < n; i++ {
		raceX[i] = centerX[i] + offsets[i]*normalX[i]
		raceY[i] = centerY[i] + offsets[i]*normalY[i]
	}

	// Speed limits come from the racing line's own curvature, not the
	// centerline's: refit and measure again.
	raceCurvature, err := curvatureOf(raceX, raceY, n, cfg)
	if err != nil {
		return nil, err
	}

	vLateral := make([]float64, n)
	for i := 0; i < n; i++ {
		v := math.Sqrt(grip * gravity * (1 / raceCurvature[i]) * veh.CornerSpeedFactor)
		vLateral[i] = math.Min(v, veh.TopSpeedMps)
	}

	speeds := solveSpeedProfile(vLateral, dist, veh)
	lapTime := lapTime(speeds, dist)

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{
			X:         raceX[i],
			Y:         raceY[i],
			Dist:      dist[i],
			Speed:     speeds[i],
			Curvature: raceCurvature[i],
			Grip:      grip,
			LapTime:   lapTime,
		}
	}
	log.Printf("[OptimalLine] lap time %.2fs (min %.1f, max %.1f m/s)",
		lapTime, floats.Min(speeds), floats.Max(speeds))
	return &Result{Points: points, Grip: grip, LapTime: lapTime}, nil
}

// curvatureOf fits a closed curve through the given loop and samples its
// smoothed, floored curvature at n uniform parameter steps.
func curvatureOf(xs, ys []float64, n int, cfg Config) ([]float64, error) {
	cleanX, cleanY := dedupe(xs, ys)
	if len(cleanX) < minUniquePoints {
		return nil, fmt.Errorf("%w: racing line collapsed to %d points", ErrDegenerateGeometry, len(cleanX))
	}
	curve, err := fitClosedCurve(cleanX, cleanY)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		u := float64(i) * curve.period / float64(n)
		dx, dy, d2x, d2y := curve.Derivatives(u)
		tangentLen := math.Hypot(dx, dy)
		if tangentLen == 0 {
			tangentLen = 1
		}
		out[i] = math.Abs(dx*d2y-dy*d2x) / (tangentLen * tangentLen * tangentLen)
	}
	out = geo.GaussianSmooth(out, cfg.RaceCurvatureSigma, geo.Wrap)
	for i := range out {
		if out[i] < cfg.MinCurvature {
			out[i] = cfg.MinCurvature
		}
	}
	return out, nil
}

// solveSpeedProfile runs the two-pass speed solve: a forward pass capped by
// available acceleration, then a backward pass enforcing that the car can
// always brake in time for the next corner.
func solveSpeedProfile(vLateral, dist []float64, veh vehicle.Config) []float64 {
	n := len(vLateral)
	speeds := make([]float64, n)
	if n == 0 {
		return speeds
	}

	speeds[0] = vLateral[0]
	for i := 1; i < n; i++ {
		ds := dist[i] - dist[i-1]
		vAccel := math.Sqrt(speeds[i-1]*speeds[i-1] + 2*veh.MaxAccelG*gravity*ds)
		speeds[i] = math.Min(vLateral[i], vAccel)
	}
	for i := n - 2; i >= 0; i-- {
		ds := dist[i+1] - dist[i]
		vBrake := math.Sqrt(speeds[i+1]*speeds[i+1] + 2*veh.MaxBrakeG*gravity*ds)
		speeds[i] = math.Min(speeds[i], vBrake)
	}
	return speeds
}

// lapTime sums segment times using the mean of adjacent speeds, floored at
// 1 m/s so a near-stopped segment cannot blow up the total.
func lapTime(speeds, dist []float64) float64 {
	total := 0.0
	for i := 0; i+1 < len(dist); i++ {
		ds := dist[i+1] - dist[i]
		vAvg := (speeds[i] + speeds[i+1]) / 2
		total += ds / math.Max(vAvg, 1.0)
	}
	return total
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
