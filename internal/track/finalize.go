package track

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/apexdata/trackline/internal/elevation"
	"github.com/apexdata/trackline/internal/geo"
	"github.com/apexdata/trackline/internal/units"
)

// Presentation colors for the emitted visual sub-paths.
const (
	colorSector1   = "#3b82f6"
	colorSector2   = "#eab308"
	colorSector3   = "#ef4444"
	colorFullTrack = "#10b981"
	colorPitLane   = "#f97316"
)

// sfSearchLimit bounds the start/finish nearest-point search on very dense
// tracks.
const sfSearchLimit = 2000

// FinalizeOptions configures one reconstruction run.
type FinalizeOptions struct {
	Name string
	// StartFinish anchors the loop rotation. When nil, the first raw vertex
	// of the first track fragment is used.
	StartFinish *geo.LatLon
	// Sector lengths in inches; zero leaves the sector undefined.
	Sector1Inches float64
	Sector2Inches float64
	// TargetMiles rescales the loop to this total length when positive.
	TargetMiles float64

	Assembler AssemblerConfig
	Resample  ResampleConfig
	// Elevation supplies terrain height; nil builds a flat model.
	Elevation elevation.Provider
}

// DefaultFinalizeOptions returns options with the tuned defaults and no
// elevation provider.
func DefaultFinalizeOptions() FinalizeOptions {
	return FinalizeOptions{
		Assembler: DefaultAssemblerConfig(),
		Resample:  DefaultResampleConfig(),
	}
}

// Finalize runs the full reconstruction over a survey: stitch, resample,
// integrate elevation, rotate to the start/finish point, locate sectors, and
// emit the presentation paths. The survey is not modified.
func Finalize(ctx context.Context, survey *Survey, opts FinalizeOptions) (*Model, error) {
	trackFrags := survey.TrackFragments()
	if len(trackFrags) == 0 {
		return nil, ErrNoData
	}

	sf := opts.StartFinish
	if sf == nil {
		first := trackFrags[0].Raw[0]
		sf = &first
	}
	sfPoint := geo.Project(sf.Lat, sf.Lon, survey.Center.Lat, survey.Center.Lon)

	chain, stitchWarn := Stitch(trackFrags, sfPoint, opts.Assembler)
	if len(chain) == 0 {
		return nil, ErrNoData
	}

	cfg := opts.Resample
	if opts.TargetMiles > 0 {
		cfg.TargetLengthMeters = units.MilesToMeters(opts.TargetMiles)
	}
	res, err := Resample(ctx, chain, survey.PitFragments(), opts.Elevation, cfg)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}

	points := res.Points
	total := res.TotalLength

	// Rotate the loop so the point nearest start/finish becomes index 0,
	// then rebuild cumulative distance from there.
	scaledSF := geo.Point{X: sfPoint.X * res.ScaleFactor, Y: sfPoint.Y * res.ScaleFactor}
	sfIndex := nearestIndex(points, scaledSF, sfSearchLimit)
	if sfIndex > 0 {
		rotated := make([]SplinePoint, 0, len(points))
		rotated = append(rotated, points[sfIndex:]...)
		rotated = append(rotated, points[:sfIndex]...)
		points = rotated

		total = 0
		points[0].Dist = 0
		for i := 1; i < len(points); i++ {
			total += geo.Distance(
				geo.Point{X: points[i-1].X, Y: points[i-1].Y},
				geo.Point{X: points[i].X, Y: points[i].Y},
			)
			points[i].Dist = total
		}
	}

	sectors := locateSectors(points, opts.Sector1Inches, opts.Sector2Inches)

	model := &Model{
		Name:              opts.Name,
		Center:            survey.Center,
		Points:            points,
		TotalLength:       total,
		ScaleFactor:       res.ScaleFactor,
		Sectors:           sectors,
		VisualPaths:       buildVisualPaths(points, sectors, res.Pits),
		Pits:              res.Pits,
		ElevationDegraded: res.Degraded,
		Stitch:            stitchWarn,
	}
	log.Printf("[Assembler] finalized %q: %d points, %.1fm, sectors defined=%v",
		model.Name, len(points), total, sectors.Defined())
	return model, nil
}

// nearestIndex returns the index of the point closest to target among the
// first limit points.
func nearestIndex(points []SplinePoint, target geo.Point, limit int) int {
	if limit > len(points) {
		limit = len(points)
	}
	best, bestIdx := -1.0, 0
	for i := 0; i < limit; i++ {
		d := geo.Distance(geo.Point{X: points[i].X, Y: points[i].Y}, target)
		if best < 0 || d < best {
			best, bestIdx = d, i
		}
	}
	return bestIdx
}

// locateSectors converts the sector lengths to meters and finds the first
// indices whose cumulative distance reaches each threshold. A zero length or
// a track shorter than the threshold leaves the boundary Undefined.
func locateSectors(points []SplinePoint, s1Inches, s2Inches float64) SectorSet {
	s1m := units.InchesToMeters(s1Inches)
	s2m := units.InchesToMeters(s2Inches)

	set := SectorSet{
		SFIndex:        0,
		S1End:          Undefined,
		S2End:          Undefined,
		S3End:          Undefined,
		S1LengthMeters: s1m,
		S2LengthMeters: s2m,
	}
	if s1m > 0 {
		for i, p := range points {
			if p.Dist >= s1m {
				set.S1End = i
				break
			}
		}
	}
	if s2m > 0 {
		for i, p := range points {
			if p.Dist >= s1m+s2m {
				set.S2End = i
				break
			}
		}
	}
	if len(points) > 0 {
		set.S3End = len(points) - 1
	}
	return set
}

// pathD renders the SVG path data for a point run.
func pathD(points []VisualPoint) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s %.2f %.2f", cmd, p.X, p.Y)
	}
	return b.String()
}

func visualRun(points []SplinePoint) []VisualPoint {
	out := make([]VisualPoint, len(points))
	for i, p := range points {
		out[i] = VisualPoint{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// buildVisualPaths emits the non-overlapping presentation sub-paths: three
// sector runs when both boundaries are defined, otherwise one full-track
// run, plus one path per pit group.
func buildVisualPaths(points []SplinePoint, sectors SectorSet, pits []PitGroup) []VisualPath {
	var paths []VisualPath

	if sectors.Defined() {
		runs := []struct {
			id    string
			color string
			pts   []SplinePoint
		}{
			{"s1", colorSector1, points[:sectors.S1End+1]},
			{"s2", colorSector2, points[sectors.S1End : sectors.S2End+1]},
			{"s3", colorSector3, points[sectors.S2End:]},
		}
		for _, run := range runs {
			if len(run.pts) == 0 {
				continue
			}
			paths = append(paths, VisualPath{
				ID:    run.id,
				Color: run.color,
				Width: run.pts[0].Width,
				D:     pathD(visualRun(run.pts)),
			})
		}
	} else if len(points) > 0 {
		paths = append(paths, VisualPath{
			ID:    "track_full",
			Color: colorFullTrack,
			Width: defaultTrackWidth,
			D:     pathD(visualRun(points)),
		})
	}

	for _, pit := range pits {
		paths = append(paths, VisualPath{
			ID:     fmt.Sprintf("%d", pit.ID),
			Color:  colorPitLane,
			Width:  pit.Width,
			D:      pathD(pit.Points),
			Points: pit.Points,
		})
	}
	return paths
}
