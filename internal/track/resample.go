package track

import (
	"context"
	"log"

	"github.com/apexdata/trackline/internal/elevation"
	"github.com/apexdata/trackline/internal/geo"
)

// ResampleConfig tunes the spline resampler.
type ResampleConfig struct {
	// SpacingMeters is the nominal distance between emitted points.
	SpacingMeters float64
	// ElevationSigma is the Gaussian smoothing width (in points) applied to
	// elevation after interpolation.
	ElevationSigma float64
	// BatchSize caps the number of coordinates per elevation request.
	BatchSize int
	// TargetLengthMeters rescales the whole loop to this total length when
	// positive. Elevation is never scaled.
	TargetLengthMeters float64
}

// DefaultResampleConfig returns the resolution the pipeline was tuned with.
func DefaultResampleConfig() ResampleConfig {
	return ResampleConfig{
		SpacingMeters:  1.0,
		ElevationSigma: 5.0,
		BatchSize:      200,
	}
}

// ResampleOutput is the resampled centerline plus pit groups, before
// start/finish rotation.
type ResampleOutput struct {
	Points      []SplinePoint
	Pits        []PitGroup
	TotalLength float64
	ScaleFactor float64
	Degraded    bool
}

// Resample walks the ordered segments and emits a uniformly-spaced point
// sequence with interpolated width, geographic coordinates, and elevation.
//
// Elevation integration is a two-pass process: the first interpolation pass
// is geometry-only, elevation is fetched in batches for the original segment
// vertices only, then the interpolation runs a second time carrying
// elevation alongside position. Collapsing the passes would multiply
// provider calls by the resampling factor, so they stay separate.
//
// Elevation failure is never fatal: the whole elevation phase degrades to
// flat terrain (all zeros) rather than emitting partially-populated data,
// and the degradation is reported on the output.
func Resample(ctx context.Context, segments []Segment, pits []Fragment, provider elevation.Provider, cfg ResampleConfig) (*ResampleOutput, error) {
	if len(segments) == 0 {
		return nil, ErrNoData
	}
	if cfg.SpacingMeters <= 0 {
		cfg.SpacingMeters = 1.0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}

	// Pass one: geometry only.
	points, total := interpolateSegments(segments, nil, cfg.SpacingMeters)
	if len(points) < 2 || total <= 0 {
		return nil, ErrDegenerateGeometry
	}

	out := &ResampleOutput{ScaleFactor: 1.0}

	var elevations map[elevation.Key]float64
	if provider != nil {
		var err error
		elevations, err = fetchSegmentElevations(ctx, segments, provider, cfg.BatchSize)
		if err != nil {
			log.Printf("[Resampler] elevation unavailable, falling back to flat terrain: %v", err)
			out.Degraded = true
			elevations = nil
		}
	}

	if elevations != nil {
		// Pass two: same walk, elevation interpolated alongside position.
		points, total = interpolateSegments(segments, elevations, cfg.SpacingMeters)
	}

	if len(points) > 10 && cfg.ElevationSigma > 0 {
		z := make([]float64, len(points))
		for i := range points {
			z[i] = points[i].Z
		}
		z = geo.GaussianSmooth(z, cfg.ElevationSigma, geo.Wrap)
		for i := range points {
			points[i].Z = z[i]
		}
	}

	out.Pits = buildPitGroups(ctx, pits, provider, out)

	normalizeElevation(points, out.Pits)

	if cfg.TargetLengthMeters > 0 {
		scale := cfg.TargetLengthMeters / total
		out.ScaleFactor = scale
		for i := range points {
			points[i].X *= scale
			points[i].Y *= scale
		}
		for pi := range out.Pits {
			for i := range out.Pits[pi].Points {
				out.Pits[pi].Points[i].X *= scale
				out.Pits[pi].Points[i].Y *= scale
			}
		}
		// Recompute cumulative distance from the scaled coordinates so the
		// two stay consistent.
		total = 0
		points[0].Dist = 0
		for i := 1; i < len(points); i++ {
			total += geo.Distance(
				geo.Point{X: points[i-1].X, Y: points[i-1].Y},
				geo.Point{X: points[i].X, Y: points[i].Y},
			)
			points[i].Dist = total
		}
		log.Printf("[Resampler] rescaled loop to %.1fm (factor %.6f)", total, scale)
	}

	out.Points = points
	out.TotalLength = total
	return out, nil
}

// interpolateSegments emits points at most spacing meters apart, carrying
// interpolated geographic coordinates (and elevation, when elev is non-nil)
// between consecutive raw vertices. Across a segment boundary the geographic
// interpolation holds at the incoming vertex; only position is blended.
func interpolateSegments(segments []Segment, elev map[elevation.Key]float64, spacing float64) ([]SplinePoint, float64) {
	var points []SplinePoint
	total := 0.0

	zOf := func(ll geo.LatLon) float64 {
		if elev == nil {
			return 0
		}
		return elev[elevation.RoundKey(ll.Lat, ll.Lon)]
	}

	for _, seg := range segments {
		for i, p := range seg.Points {
			raw := seg.Raw[i]
			if len(points) > 0 {
				last := points[len(points)-1]
				lastRaw := raw
				if i > 0 {
					lastRaw = seg.Raw[i-1]
				}
				d := geo.Distance(geo.Point{X: last.X, Y: last.Y}, p)
				if d > spacing {
					steps := int(d / spacing)
					z0, z1 := zOf(lastRaw), zOf(raw)
					for s := 1; s <= steps; s++ {
						t := float64(s) * spacing / d
						points = append(points, SplinePoint{
							X:     last.X + (p.X-last.X)*t,
							Y:     last.Y + (p.Y-last.Y)*t,
							Z:     z0 + (z1-z0)*t,
							Lat:   lastRaw.Lat + (raw.Lat-lastRaw.Lat)*t,
							Lon:   lastRaw.Lon + (raw.Lon-lastRaw.Lon)*t,
							Dist:  total + float64(s)*spacing,
							Width: seg.Width,
						})
					}
				}
				total += d
			}
			points = append(points, SplinePoint{
				X:     p.X,
				Y:     p.Y,
				Z:     zOf(raw),
				Lat:   raw.Lat,
				Lon:   raw.Lon,
				Dist:  total,
				Width: seg.Width,
			})
		}
	}
	return points, total
}

// fetchSegmentElevations batches elevation lookups for the unique original
// vertices of the ordered segments. Batches run sequentially; the merge back
// onto points is keyed by rounded coordinate, not call order.
func fetchSegmentElevations(ctx context.Context, segments []Segment, provider elevation.Provider, batchSize int) (map[elevation.Key]float64, error) {
	seen := make(map[elevation.Key]bool)
	var coords []elevation.Coordinate
	for _, seg := range segments {
		for _, ll := range seg.Raw {
			k := elevation.RoundKey(ll.Lat, ll.Lon)
			if seen[k] {
				continue
			}
			seen[k] = true
			coords = append(coords, elevation.Coordinate{Lat: ll.Lat, Lon: ll.Lon})
		}
	}
	log.Printf("[Resampler] fetching elevation for %d unique vertices", len(coords))

	merged := make(map[elevation.Key]float64, len(coords))
	for start := 0; start < len(coords); start += batchSize {
		end := start + batchSize
		if end > len(coords) {
			end = len(coords)
		}
		batch, err := provider.Fetch(ctx, coords[start:end])
		if err != nil {
			return nil, err
		}
		for k, v := range batch {
			merged[k] = v
		}
	}
	return merged, nil
}

// buildPitGroups projects each pit fragment into its own point group,
// fetching elevation per group. Pit elevation shares the centerline's
// degraded fallback: missing values become 0.
func buildPitGroups(ctx context.Context, pits []Fragment, provider elevation.Provider, out *ResampleOutput) []PitGroup {
	groups := make([]PitGroup, 0, len(pits))
	for _, pit := range pits {
		var elev map[elevation.Key]float64
		if provider != nil && !out.Degraded {
			coords := make([]elevation.Coordinate, len(pit.Raw))
			for i, ll := range pit.Raw {
				coords[i] = elevation.Coordinate{Lat: ll.Lat, Lon: ll.Lon}
			}
			var err error
			elev, err = provider.Fetch(ctx, coords)
			if err != nil {
				log.Printf("[Resampler] pit %d elevation unavailable: %v", pit.ID, err)
				elev = nil
			}
		}

		g := PitGroup{ID: pit.ID, Width: pit.Width, Points: make([]VisualPoint, len(pit.Points))}
		for i, p := range pit.Points {
			z := 0.0
			if elev != nil {
				z = elev[elevation.RoundKey(pit.Raw[i].Lat, pit.Raw[i].Lon)]
			}
			g.Points[i] = VisualPoint{X: p.X, Y: p.Y, Z: z}
		}
		groups = append(groups, g)
	}
	return groups
}

// normalizeElevation shifts all elevations so the global minimum, pit lanes
// included, sits at exactly 0.
func normalizeElevation(points []SplinePoint, pits []PitGroup) {
	if len(points) == 0 {
		return
	}
	minZ := points[0].Z
	for _, p := range points {
		if p.Z < minZ {
			minZ = p.Z
		}
	}
	for _, g := range pits {
		for _, p := range g.Points {
			if p.Z < minZ {
				minZ = p.Z
			}
		}
	}
	if minZ == 0 {
		return
	}
	for i := range points {
		points[i].Z -= minZ
	}
	for gi := range pits {
		for i := range pits[gi].Points {
			pits[gi].Points[i].Z -= minZ
		}
	}
	log.Printf("[Resampler] normalized elevation baseline by %.2fm", minZ)
}
