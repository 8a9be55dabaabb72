package track

import (
	"log"
	"math"
	"strings"

	"github.com/apexdata/trackline/internal/geo"
	"github.com/apexdata/trackline/internal/overpass"
)

// AssemblerConfig tunes survey filtering and stitching.
type AssemblerConfig struct {
	// GapThresholdMeters is the largest endpoint gap the stitcher will
	// bridge when extending the chain.
	GapThresholdMeters float64
}

// DefaultAssemblerConfig returns the thresholds the pipeline was tuned with.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{GapThresholdMeters: 50.0}
}

// Survey is the filtered, projected form of one Overpass result: every
// drivable fragment in planar meters around Center.
type Survey struct {
	Fragments []Fragment
	Center    geo.LatLon
}

// TrackFragments returns the racing-surface fragments.
func (s *Survey) TrackFragments() []Fragment {
	var out []Fragment
	for _, f := range s.Fragments {
		if f.Kind == KindTrack {
			out = append(out, f)
		}
	}
	return out
}

// PitFragments returns the pit-lane fragments.
func (s *Survey) PitFragments() []Fragment {
	var out []Fragment
	for _, f := range s.Fragments {
		if f.Kind == KindPit {
			out = append(out, f)
		}
	}
	return out
}

// BuildSurvey filters raw ways, classifies pit lane against the optional
// anchor, and projects every fragment into planar meters around the
// bounding-box center of all nodes.
//
// Filtering rules: fragments with fewer than two resolvable nodes are
// dropped, as is anything tagged barrier/wall/building. A highway=service
// way is dropped unless it is the single fragment nearest the pit anchor,
// which is kept and marked as pit lane.
func BuildSurvey(res *overpass.Result, pitAnchor *geo.LatLon) (*Survey, error) {
	if res.Empty() {
		return nil, ErrNoData
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, n := range res.Nodes {
		minLat = math.Min(minLat, n.Lat)
		maxLat = math.Max(maxLat, n.Lat)
		minLon = math.Min(minLon, n.Lon)
		maxLon = math.Max(maxLon, n.Lon)
	}
	if !(minLat <= maxLat && minLon <= maxLon) {
		return nil, ErrNoData
	}
	if maxLat-minLat == 0 && maxLon-minLon == 0 {
		return nil, ErrDegenerateGeometry
	}
	center := geo.LatLon{Lat: (minLat + maxLat) / 2, Lon: (minLon + maxLon) / 2}

	// Resolve node references first; classification needs endpoints.
	type candidate struct {
		way    overpass.Way
		raw    []geo.LatLon
		points []geo.Point
	}
	var cands []candidate
	for _, way := range res.Ways {
		tags := way.Tags
		if tags["barrier"] != "" || tags["wall"] != "" || tags["building"] != "" {
			continue
		}
		var raw []geo.LatLon
		var pts []geo.Point
		for _, id := range way.Nodes {
			n, ok := res.Nodes[id]
			if !ok {
				continue
			}
			raw = append(raw, geo.LatLon{Lat: n.Lat, Lon: n.Lon})
			pts = append(pts, geo.Project(n.Lat, n.Lon, center.Lat, center.Lon))
		}
		if len(pts) < 2 {
			continue
		}
		cands = append(cands, candidate{way: way, raw: raw, points: pts})
	}
	if len(cands) == 0 {
		return nil, ErrNoData
	}

	// The single fragment with an endpoint nearest the pit anchor becomes
	// the pit lane.
	pitID := int64(0)
	havePit := false
	if pitAnchor != nil {
		anchor := geo.Project(pitAnchor.Lat, pitAnchor.Lon, center.Lat, center.Lon)
		best := math.Inf(1)
		for _, c := range cands {
			d := math.Min(
				geo.Distance(c.points[0], anchor),
				geo.Distance(c.points[len(c.points)-1], anchor),
			)
			if d < best {
				best = d
				pitID = c.way.ID
				havePit = true
			}
		}
	}

	survey := &Survey{Center: center}
	for _, c := range cands {
		tags := c.way.Tags
		isAnchorPit := havePit && c.way.ID == pitID
		if tags["highway"] == "service" && !isAnchorPit {
			continue
		}

		kind := KindTrack
		width := defaultTrackWidth
		if isAnchorPit || tags["service"] == "pit_lane" || strings.Contains(strings.ToLower(tags["name"]), "pit") {
			kind = KindPit
			width = defaultPitWidth
		}
		if w, ok := tags["width"]; ok {
			width = parseWidth(w, width)
		}

		survey.Fragments = append(survey.Fragments, Fragment{
			ID:     c.way.ID,
			Kind:   kind,
			Width:  width,
			Points: c.points,
			Raw:    c.raw,
		})
	}
	if len(survey.TrackFragments()) == 0 {
		return nil, ErrNoData
	}

	log.Printf("[Assembler] survey: %d fragments (%d track, %d pit), center %.6f,%.6f",
		len(survey.Fragments), len(survey.TrackFragments()), len(survey.PitFragments()),
		center.Lat, center.Lon)
	return survey, nil
}

// Stitch orders and orients the track fragments into one directed chain
// using greedy nearest-endpoint matching.
//
// The chain starts from the fragment whose head or tail lies nearest to
// start, and is repeatedly extended by the unused fragment whose nearest
// endpoint to the chain tail is within the gap threshold (reversing the
// fragment when its tail is the closer endpoint). This is a heuristic over
// an open chain, not a graph traversal: branching junctions take whichever
// fragment is first-closest, and disjoint loops truncate the chain at the
// first unmatched gap. The returned warning is non-nil when fragments were
// left unused.
func Stitch(fragments []Fragment, start geo.Point, cfg AssemblerConfig) ([]Segment, *StitchWarning) {
	if len(fragments) == 0 {
		return nil, nil
	}

	startIdx, startRev := -1, false
	best := math.Inf(1)
	for i := range fragments {
		if d := geo.Distance(fragments[i].Head(), start); d < best {
			best, startIdx, startRev = d, i, false
		}
		if d := geo.Distance(fragments[i].Tail(), start); d < best {
			best, startIdx, startRev = d, i, true
		}
	}

	used := make(map[int]bool, len(fragments))
	chain := make([]Segment, 0, len(fragments))
	cur, rev := startIdx, startRev
	var lastGap float64

	for range fragments {
		used[cur] = true
		seg := fragments[cur].oriented(rev)
		chain = append(chain, seg)

		tail := seg.Points[len(seg.Points)-1]
		nextIdx, nextRev := -1, false
		minGap := math.Inf(1)
		for i := range fragments {
			if used[i] {
				continue
			}
			if d := geo.Distance(tail, fragments[i].Head()); d < minGap {
				minGap, nextIdx, nextRev = d, i, false
			}
			if d := geo.Distance(tail, fragments[i].Tail()); d < minGap {
				minGap, nextIdx, nextRev = d, i, true
			}
		}
		if nextIdx == -1 || minGap >= cfg.GapThresholdMeters {
			lastGap = minGap
			break
		}
		cur, rev = nextIdx, nextRev
	}

	if len(chain) < len(fragments) {
		warn := &StitchWarning{GapMeters: lastGap, Unused: len(fragments) - len(chain)}
		log.Printf("[Assembler] %s", warn)
		return chain, warn
	}
	return chain, nil
}
