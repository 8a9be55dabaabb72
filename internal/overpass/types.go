// Package overpass fetches and decodes raw circuit survey data from the
// Overpass API. It produces the node/way records consumed by the track
// assembler and performs no geometric processing of its own.
package overpass

// Node is one surveyed geographic point, keyed by its OSM id.
type Node struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Way is one contiguous surveyed polyline: an ordered list of node ids plus
// the tag set attached by the surveyor. A way may describe racing surface,
// pit lane, or infrastructure that the assembler filters out.
type Way struct {
	ID    int64             `json:"id"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

// Result is the decoded payload of one Overpass query.
type Result struct {
	Nodes map[int64]Node
	Ways  []Way
}

// Empty reports whether the query produced no usable ways.
func (r *Result) Empty() bool {
	return r == nil || len(r.Ways) == 0
}
