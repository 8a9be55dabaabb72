package raceline

import (
	"errors"
	"math"
	"testing"

	"github.com/apexdata/trackline/internal/track"
	"github.com/apexdata/trackline/internal/vehicle"
	"github.com/apexdata/trackline/internal/weather"
)

// circleModel builds a finished track model on a circle: constant curvature,
// so the solver's behaviour is predictable in closed form.
func circleModel(radius float64, n int) *track.Model {
	pts := make([]track.SplinePoint, n)
	dist := 0.0
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := radius * math.Cos(a)
		y := radius * math.Sin(a)
		if i > 0 {
			dist += math.Hypot(x-pts[i-1].X, y-pts[i-1].Y)
		}
		pts[i] = track.SplinePoint{X: x, Y: y, Dist: dist, Width: 12}
	}
	return &track.Model{
		Name:        "circle",
		Points:      pts,
		TotalLength: 2 * math.Pi * radius,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.N = 400
	return cfg
}

func TestGenerateCircle(t *testing.T) {
	model := circleModel(100, 300)
	veh := vehicle.Default()
	wx := weather.Default()

	res, err := Generate(model, veh, wx, testConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Points) != 400 {
		t.Fatalf("expected 400 points, got %d", len(res.Points))
	}
	if res.LapTime <= 0 {
		t.Errorf("lap time = %f", res.LapTime)
	}
	if res.Grip != ComputeGrip(veh, wx) {
		t.Errorf("result grip = %f, want %f", res.Grip, ComputeGrip(veh, wx))
	}

	halfWidth := model.MeanWidth() / 2
	for i, p := range res.Points {
		if p.Speed <= 0 || p.Speed > veh.TopSpeedMps+1e-9 {
			t.Fatalf("point %d speed %f out of range", i, p.Speed)
		}
		// The racing line stays within the drivable surface around the
		// centerline circle.
		r := math.Hypot(p.X, p.Y)
		if r < 100-halfWidth || r > 100+halfWidth {
			t.Fatalf("point %d at radius %f left the track", i, r)
		}
		if p.Grip != res.Grip || p.LapTime != res.LapTime {
			t.Fatalf("point %d does not repeat the result scalars", i)
		}
	}

	// On a 100 m circle the corner limit is far below top speed:
	// v = sqrt(grip * g * r * factor).
	vExpect := math.Sqrt(res.Grip * 9.81 * 100 * veh.CornerSpeedFactor)
	for i, p := range res.Points {
		if p.Speed > vExpect*1.25 {
			t.Fatalf("point %d speed %f far above corner limit %f", i, p.Speed, vExpect)
		}
	}
}

func TestGenerateSpeedProfileFeasible(t *testing.T) {
	// An oval mixes straights and corners, forcing both solver passes to
	// actually bind.
	n := 400
	pts := make([]track.SplinePoint, n)
	dist := 0.0
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := 300 * math.Cos(a)
		y := 80 * math.Sin(a)
		if i > 0 {
			dist += math.Hypot(x-pts[i-1].X, y-pts[i-1].Y)
		}
		pts[i] = track.SplinePoint{X: x, Y: y, Dist: dist, Width: 15}
	}
	model := &track.Model{Name: "oval", Points: pts, TotalLength: dist}

	veh := vehicle.Default()
	res, err := Generate(model, veh, weather.Default(), testConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	const g = 9.81
	minSpeed, maxSpeed := math.Inf(1), 0.0
	for i := 1; i < len(res.Points); i++ {
		prev, cur := res.Points[i-1], res.Points[i]
		ds := cur.Dist - prev.Dist
		if ds < 0 {
			t.Fatalf("distance not monotonic at %d", i)
		}
		// Forward feasibility: no segment gains more speed than the
		// acceleration limit allows.
		vMax := math.Sqrt(prev.Speed*prev.Speed + 2*veh.MaxAccelG*g*ds)
		if cur.Speed > vMax+1e-6 {
			t.Fatalf("point %d accelerates beyond the limit: %f > %f", i, cur.Speed, vMax)
		}
		// Backward feasibility: the car can always slow down in time.
		vBrake := math.Sqrt(cur.Speed*cur.Speed + 2*veh.MaxBrakeG*g*ds)
		if prev.Speed > vBrake+1e-6 {
			t.Fatalf("point %d cannot brake for the next corner: %f > %f", i, prev.Speed, vBrake)
		}
		minSpeed = math.Min(minSpeed, cur.Speed)
		maxSpeed = math.Max(maxSpeed, cur.Speed)
	}

	// The corners must be materially slower than the straights.
	if maxSpeed-minSpeed < 5 {
		t.Errorf("speed profile is flat (%f..%f), expected corner slowdown", minSpeed, maxSpeed)
	}
}

func TestGenerateWetSlowerThanDry(t *testing.T) {
	model := circleModel(100, 300)
	veh := vehicle.Default()

	dry, err := Generate(model, veh, weather.Default(), testConfig())
	if err != nil {
		t.Fatalf("dry: %v", err)
	}
	wet := weather.Default()
	wet.Rainfall = 15
	wetRes, err := Generate(model, veh, wet, testConfig())
	if err != nil {
		t.Fatalf("wet: %v", err)
	}

	if wetRes.Grip >= dry.Grip {
		t.Errorf("wet grip %f not below dry %f", wetRes.Grip, dry.Grip)
	}
	if wetRes.LapTime <= dry.LapTime {
		t.Errorf("wet lap %f not slower than dry %f", wetRes.LapTime, dry.LapTime)
	}
}

func TestGenerateDegenerateModel(t *testing.T) {
	model := &track.Model{
		Name: "collapsed",
		Points: []track.SplinePoint{
			{X: 0, Y: 0, Width: 12},
			{X: 5, Y: 0, Width: 12},
			{X: 5, Y: 5, Width: 12},
		},
	}
	_, err := Generate(model, vehicle.Default(), weather.Default(), testConfig())
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestGenerateDuplicatePointsCollapse(t *testing.T) {
	// Many points that dedupe below the cubic floor behave like too few.
	pts := make([]track.SplinePoint, 50)
	for i := range pts {
		pts[i] = track.SplinePoint{X: float64(i) * 0.005, Y: 0, Width: 12}
	}
	_, err := Generate(&track.Model{Name: "dup", Points: pts}, vehicle.Default(), weather.Default(), testConfig())
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestGenerateInvalidVehicle(t *testing.T) {
	veh := vehicle.Default()
	veh.TopSpeedMps = 0
	_, err := Generate(circleModel(100, 300), veh, weather.Default(), testConfig())
	if err == nil {
		t.Error("expected validation error")
	}
}

func TestSolveSpeedProfileEmpty(t *testing.T) {
	if out := solveSpeedProfile(nil, nil, vehicle.Default()); len(out) != 0 {
		t.Errorf("expected empty profile")
	}
}

func TestLapTimeFloorsMeanSpeed(t *testing.T) {
	// Near-stopped segments use a 1 m/s floor so the total stays bounded.
	dist := []float64{0, 10}
	speeds := []float64{0, 0}
	if got := lapTime(speeds, dist); got != 10 {
		t.Errorf("lap time = %f, want 10 (floored)", got)
	}
}
