// Package elevation provides terrain elevation lookup for track geometry.
// The pipeline only ever queries through the Provider interface, so tests
// and degraded runs can substitute fixed terrain.
package elevation

import "context"

// Key identifies a coordinate rounded to 6 decimal places (~0.1 m), the
// resolution at which elevation responses are merged back onto track nodes.
type Key struct {
	Lat float64
	Lon float64
}

// Coordinate is one elevation query point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// RoundKey produces the merge key for a coordinate.
func RoundKey(lat, lon float64) Key {
	return Key{Lat: round6(lat), Lon: round6(lon)}
}

func round6(v float64) float64 {
	const scale = 1e6
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}

// Provider fetches elevations for a batch of coordinates. Implementations
// must be idempotent and tolerant of duplicate query points; coordinates
// missing from the returned map are treated as elevation 0 by callers.
type Provider interface {
	Fetch(ctx context.Context, coords []Coordinate) (map[Key]float64, error)
}

// Flat is the degraded-mode provider: every coordinate resolves to 0 m.
type Flat struct{}

// Fetch returns a zero elevation for every requested coordinate.
func (Flat) Fetch(_ context.Context, coords []Coordinate) (map[Key]float64, error) {
	out := make(map[Key]float64, len(coords))
	for _, c := range coords {
		out[RoundKey(c.Lat, c.Lon)] = 0
	}
	return out, nil
}
