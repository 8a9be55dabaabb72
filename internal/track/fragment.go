package track

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/apexdata/trackline/internal/geo"
)

// Kind classifies a projected fragment.
type Kind int

const (
	// KindTrack marks racing surface.
	KindTrack Kind = iota
	// KindPit marks pit-lane surface.
	KindPit
)

const (
	defaultTrackWidth = 12.0
	defaultPitWidth   = 5.0
)

// Fragment is one surveyed polyline after projection: planar vertices in
// meters around the survey center, plus the original geographic coordinates
// retained for elevation lookup. Derived once, read-only afterwards.
type Fragment struct {
	ID     int64
	Kind   Kind
	Width  float64
	Points []geo.Point
	Raw    []geo.LatLon
}

// Head and Tail return the fragment endpoints.
func (f *Fragment) Head() geo.Point { return f.Points[0] }
func (f *Fragment) Tail() geo.Point { return f.Points[len(f.Points)-1] }

// Segment is a fragment with a fixed traversal direction assigned by the
// stitcher. Points and Raw are already in traversal order.
type Segment struct {
	ID     int64
	Width  float64
	Points []geo.Point
	Raw    []geo.LatLon
}

// reversed returns an oriented copy of the fragment.
func (f *Fragment) oriented(reverse bool) Segment {
	seg := Segment{
		ID:     f.ID,
		Width:  f.Width,
		Points: make([]geo.Point, len(f.Points)),
		Raw:    make([]geo.LatLon, len(f.Raw)),
	}
	if !reverse {
		copy(seg.Points, f.Points)
		copy(seg.Raw, f.Raw)
		return seg
	}
	n := len(f.Points)
	for i := 0; i < n; i++ {
		seg.Points[i] = f.Points[n-1-i]
		seg.Raw[i] = f.Raw[n-1-i]
	}
	return seg
}

var widthPattern = regexp.MustCompile(`^([0-9.]+)`)

// parseWidth extracts a numeric width in meters from an OSM width tag
// ("12", "12 m", "12.5;10"). Falls back to def when unparseable.
func parseWidth(tag string, def float64) float64 {
	m := widthPattern.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return def
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
