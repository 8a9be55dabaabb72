package overpass

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/apexdata/trackline/internal/httputil"
)

// DefaultEndpoints are the public Overpass interpreters tried in order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
}

const userAgent = "trackline/1.0"

// Client issues Overpass queries with endpoint failover and bounded retries.
type Client struct {
	HTTP       httputil.HTTPClient
	Endpoints  []string
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient returns a Client using the given HTTP implementation, or the
// standard client when nil.
func NewClient(h httputil.HTTPClient) *Client {
	if h == nil {
		h = httputil.NewStandardClient(&http.Client{Timeout: 90 * time.Second})
	}
	return &Client{
		HTTP:       h,
		Endpoints:  DefaultEndpoints,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// FetchByCoords queries for racing surface around a coordinate: raceway and
// motor-racing ways within 2 km, pit-lane service ways within 1 km, and any
// circuit relation touching those seeds.
func (c *Client) FetchByCoords(ctx context.Context, lat, lon float64) (*Result, error) {
	query := fmt.Sprintf(`
[out:json][timeout:90];
(
  way(around:2000,%[1]f,%[2]f)["highway"="raceway"];
  way(around:2000,%[1]f,%[2]f)["leisure"="track"];
  way(around:2000,%[1]f,%[2]f)["sport"="motor_racing"];
  way(around:1000,%[1]f,%[2]f)["highway"="service"]["service"~"driveway|alley|pit_lane"];
)->.seeds;
(.seeds;rel(bw.seeds)["type"="circuit"];);
(._;>;);
out body qt;
`, lat, lon)
	return c.run(ctx, query)
}

// FetchByName queries for a named circuit.
func (c *Client) FetchByName(ctx context.Context, name string) (*Result, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(name), `"`, `\"`)
	query := fmt.Sprintf(`
[out:json][timeout:25];
(
  nwr["name"~"%[1]s",i]["sport"="motor_racing"];
  nwr["name"~"%[1]s",i]["highway"="raceway"];
  relation["type"="circuit"]["name"~"%[1]s",i];
);
(._;>;);
out body qt;
`, clean)
	return c.run(ctx, query)
}

// run executes one query against each endpoint in turn, retrying transient
// failures, and returns the first non-empty parsed result.
func (c *Client) run(ctx context.Context, query string) (*Result, error) {
	var lastErr error
	for _, url := range c.Endpoints {
		for attempt := 0; attempt < c.MaxRetries; attempt++ {
			res, err := c.post(ctx, url, query)
			if err != nil {
				lastErr = err
				log.Printf("[Overpass] %s attempt %d failed: %v", url, attempt+1, err)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.RetryDelay):
				}
				continue
			}
			if !res.Empty() {
				return res, nil
			}
			// An empty but well-formed answer will not improve on retry
			// against the same endpoint.
			lastErr = fmt.Errorf("endpoint %s returned no elements", url)
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no overpass endpoints configured")
	}
	return nil, fmt.Errorf("overpass query failed: %w", lastErr)
}

func (c *Client) post(ctx context.Context, url, query string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseElements(body)
}
