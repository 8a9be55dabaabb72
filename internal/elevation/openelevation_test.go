package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/apexdata/trackline/internal/httputil"
)

func TestHTTPProviderFetch(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(200, `{"results": [
		{"latitude": 36.5841, "longitude": -121.7534, "elevation": 210.5},
		{"latitude": 36.5850, "longitude": -121.7540, "elevation": 215.0}
	]}`)
	p := NewHTTPProvider(mock)

	out, err := p.Fetch(context.Background(), []Coordinate{
		{36.5841, -121.7534},
		{36.5850, -121.7540},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := out[RoundKey(36.5841, -121.7534)]; got != 210.5 {
		t.Errorf("elevation = %f, want 210.5", got)
	}
	if got := out[RoundKey(36.5850, -121.7540)]; got != 215.0 {
		t.Errorf("elevation = %f, want 215.0", got)
	}

	req := mock.GetRequest(0)
	if req.Method != "POST" {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	body, _ := io.ReadAll(req.Body)
	var decoded struct {
		Locations []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(decoded.Locations) != 2 || decoded.Locations[0].Latitude != 36.5841 {
		t.Errorf("unexpected request payload: %+v", decoded)
	}
}

func TestHTTPProviderFetchEmpty(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	p := NewHTTPProvider(mock)
	out, err := p.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty map, got %v", out)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("no request should be issued for an empty batch")
	}
}

func TestHTTPProviderErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddErrorResponse(errors.New("timeout"))
		p := NewHTTPProvider(mock)
		if _, err := p.Fetch(context.Background(), []Coordinate{{1, 2}}); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("bad status", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddResponse(502, "bad gateway")
		p := NewHTTPProvider(mock)
		if _, err := p.Fetch(context.Background(), []Coordinate{{1, 2}}); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("bad body", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddResponse(200, "{")
		p := NewHTTPProvider(mock)
		if _, err := p.Fetch(context.Background(), []Coordinate{{1, 2}}); err == nil {
			t.Error("expected decode error")
		}
	})
}
