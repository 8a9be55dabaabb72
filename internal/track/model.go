// Package track reconstructs a continuous racetrack model from raw survey
// fragments: projection, stitching, uniform resampling, elevation
// integration, and sector partitioning. The finished TrackModel is a plain
// serializable value; nothing in this package retains references to it
// across calls.
package track

import "github.com/apexdata/trackline/internal/geo"

// SplinePoint is one element of the uniformly-resampled closed centerline.
// Ordering is significant and circular: the last point's successor is the
// first. Z is baseline-normalized elevation (minimum 0 across the whole
// model, pit lanes included).
type SplinePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Dist  float64 `json:"dist"`
	Width float64 `json:"width"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Undefined is the sentinel index for an absent sector boundary.
const Undefined = -1

// SectorSet holds sector boundary indices into the centerline. When sectors
// are defined, 0 = SFIndex <= S1End <= S2End < len(points) and S3End is the
// final index; otherwise the boundaries are Undefined.
type SectorSet struct {
	SFIndex int `json:"sfIndex"`
	S1End   int `json:"s1EndIndex"`
	S2End   int `json:"s2EndIndex"`
	S3End   int `json:"s3EndIndex"`

	S1LengthMeters float64 `json:"s1LengthMeters"`
	S2LengthMeters float64 `json:"s2LengthMeters"`
}

// Defined reports whether both timed sector boundaries were located.
func (s SectorSet) Defined() bool {
	return s.S1End > 0 && s.S2End > 0
}

// VisualPoint is a presentation-layer vertex (scaled meters + elevation).
type VisualPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VisualPath is a colored presentation sub-path: one per sector (or one for
// the whole loop when sectors are undefined), plus one per pit-lane group.
type VisualPath struct {
	ID     string        `json:"id"`
	Color  string        `json:"color"`
	Width  float64       `json:"width"`
	D      string        `json:"d"`
	Points []VisualPoint `json:"points,omitempty"`
}

// PitGroup is one pit-lane fragment kept as its own point group.
type PitGroup struct {
	ID     int64         `json:"id"`
	Width  float64       `json:"width"`
	Points []VisualPoint `json:"points"`
}

// Model is the durable reconstruction artifact: the closed centerline with
// sector boundaries, pit groups, and presentation paths. It is created once
// per Finalize call and never mutated by this package afterwards.
type Model struct {
	Name        string        `json:"name"`
	Center      geo.LatLon    `json:"center"`
	Points      []SplinePoint `json:"points"`
	TotalLength float64       `json:"totalLengthMeters"`
	ScaleFactor float64       `json:"scaleFactor"`
	Sectors     SectorSet     `json:"sectors"`
	VisualPaths []VisualPath  `json:"visualPaths"`
	Pits        []PitGroup    `json:"pits"`

	// ElevationDegraded is set when elevation lookup failed and the model
	// fell back to flat terrain.
	ElevationDegraded bool `json:"elevationDegraded,omitempty"`
	// Stitch carries the soft warning left by an incomplete chain, if any.
	Stitch *StitchWarning `json:"stitchWarning,omitempty"`
}

// MeanWidth returns the mean of the per-point widths, the representative
// track width handed to the racing-line solver.
func (m *Model) MeanWidth() float64 {
	if len(m.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range m.Points {
		sum += p.Width
	}
	return sum / float64(len(m.Points))
}
