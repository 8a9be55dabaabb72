package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/apexdata/trackline/internal/httputil"
)

// DefaultLookupURL is the public Open-Elevation lookup endpoint.
const DefaultLookupURL = "https://api.open-elevation.com/api/v1/lookup"

// HTTPProvider queries the Open-Elevation API.
type HTTPProvider struct {
	HTTP httputil.HTTPClient
	URL  string
}

// NewHTTPProvider returns a provider backed by the given client, or the
// standard client (60 s timeout) when nil.
func NewHTTPProvider(h httputil.HTTPClient) *HTTPProvider {
	if h == nil {
		h = httputil.NewStandardClient(&http.Client{Timeout: 60 * time.Second})
	}
	return &HTTPProvider{HTTP: h, URL: DefaultLookupURL}
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Fetch looks up elevations for the given coordinates in one request.
// Results are keyed by rounded coordinate; callers substitute 0 for any
// coordinate absent from the map.
func (p *HTTPProvider) Fetch(ctx context.Context, coords []Coordinate) (map[Key]float64, error) {
	if len(coords) == 0 {
		return map[Key]float64{}, nil
	}

	reqBody := lookupRequest{Locations: make([]lookupLocation, len(coords))}
	for i, c := range coords {
		reqBody.Locations[i] = lookupLocation{Latitude: c.Lat, Longitude: c.Lon}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trackline/1.0")

	log.Printf("[Elevation] lookup of %d points", len(coords))
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevation lookup: status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("elevation lookup: decode: %w", err)
	}

	out := make(map[Key]float64, len(decoded.Results))
	for _, r := range decoded.Results {
		out[RoundKey(r.Latitude, r.Longitude)] = r.Elevation
	}
	return out, nil
}
