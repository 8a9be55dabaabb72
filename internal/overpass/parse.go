package overpass

import (
	"encoding/json"
	"fmt"
)

type rawElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type rawDocument struct {
	Elements []rawElement `json:"elements"`
}

// ParseElements decodes an Overpass JSON document into nodes and ways.
// Duplicate ways (the same id appearing from both a seed match and a circuit
// relation expansion) are kept once, first occurrence wins. Relations and
// unknown element types are skipped.
func ParseElements(data []byte) (*Result, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	res := &Result{Nodes: make(map[int64]Node)}
	seenWays := make(map[int64]bool)
	for _, el := range doc.Elements {
		switch el.Type {
		case "node":
			res.Nodes[el.ID] = Node{ID: el.ID, Lat: el.Lat, Lon: el.Lon}
		case "way":
			if seenWays[el.ID] {
				continue
			}
			seenWays[el.ID] = true
			res.Ways = append(res.Ways, Way{ID: el.ID, Nodes: el.Nodes, Tags: el.Tags})
		}
	}
	return res, nil
}
