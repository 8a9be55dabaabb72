// Package api exposes the reconstruction pipeline and the optimal-line
// solver over a local HTTP surface. All payloads are the plain serializable
// records the presentation and editing collaborators consume.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/apexdata/trackline/internal/elevation"
	"github.com/apexdata/trackline/internal/geo"
	"github.com/apexdata/trackline/internal/httputil"
	"github.com/apexdata/trackline/internal/overpass"
	"github.com/apexdata/trackline/internal/raceline"
	"github.com/apexdata/trackline/internal/track"
	"github.com/apexdata/trackline/internal/trackdb"
	"github.com/apexdata/trackline/internal/vehicle"
	"github.com/apexdata/trackline/internal/version"
	"github.com/apexdata/trackline/internal/weather"
)

// elevationTimeout bounds the whole elevation phase of one scan; past it the
// model degrades to flat terrain.
const elevationTimeout = 5 * time.Minute

// Server routes pipeline requests against the store and external providers.
type Server struct {
	db        *trackdb.DB
	overpass  *overpass.Client
	elevation elevation.Provider
}

// NewServer creates the API server. elevation may be nil to build flat
// models only.
func NewServer(db *trackdb.DB, ov *overpass.Client, elev elevation.Provider) *Server {
	return &Server{db: db, overpass: ov, elevation: elev}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/track/scan", s.scanHandler)
	mux.HandleFunc("/api/tracks", s.listTracksHandler)
	mux.HandleFunc("/api/track", s.trackHandler)
	mux.HandleFunc("/api/optimal", s.optimalHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"service": "trackline",
		"version": version.Version,
	})
}

// ScanRequest describes one reconstruction run. Either Name or Lat/Lon must
// be set.
type ScanRequest struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`

	PitAnchor     *geo.LatLon `json:"pitAnchor,omitempty"`
	StartFinish   *geo.LatLon `json:"startFinish,omitempty"`
	Sector1Inches float64     `json:"sector1Inches"`
	Sector2Inches float64     `json:"sector2Inches"`
	TargetMiles   float64     `json:"targetMiles"`
	// SkipElevation builds a flat model without touching the elevation
	// provider.
	SkipElevation bool `json:"skipElevation"`
}

type scanResponse struct {
	ID    string       `json:"id"`
	Model *track.Model `json:"model"`
}

func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid scan request: %v", err))
		return
	}

	var (
		res *overpass.Result
		err error
	)
	switch {
	case req.Lat != nil && req.Lon != nil:
		res, err = s.overpass.FetchByCoords(r.Context(), *req.Lat, *req.Lon)
	case req.Name != "":
		res, err = s.overpass.FetchByName(r.Context(), req.Name)
	default:
		httputil.BadRequest(w, "scan request needs a name or lat/lon")
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, fmt.Sprintf("survey fetch failed: %v", err))
		return
	}

	survey, err := track.BuildSurvey(res, req.PitAnchor)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	opts := track.DefaultFinalizeOptions()
	opts.Name = req.Name
	opts.StartFinish = req.StartFinish
	opts.Sector1Inches = req.Sector1Inches
	opts.Sector2Inches = req.Sector2Inches
	opts.TargetMiles = req.TargetMiles
	if !req.SkipElevation {
		opts.Elevation = s.elevation
	}

	ctx, cancel := context.WithTimeout(r.Context(), elevationTimeout)
	defer cancel()
	model, err := track.Finalize(ctx, survey, opts)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	id, err := s.db.SaveTrack(model)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("save track: %v", err))
		return
	}
	log.Printf("[API] scanned track %q -> %s (%.1fm)", model.Name, id, model.TotalLength)
	httputil.WriteJSONOK(w, scanResponse{ID: id, Model: model})
}

func (s *Server) listTracksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	tracks, err := s.db.ListTracks()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list tracks: %v", err))
		return
	}
	httputil.WriteJSONOK(w, tracks)
}

func (s *Server) trackHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing track id")
		return
	}
	switch r.Method {
	case http.MethodGet:
		model, err := s.db.GetTrack(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, model)
	case http.MethodDelete:
		if err := s.db.DeleteTrack(id); err != nil {
			writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"deleted": id})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// OptimalRequest asks for a racing line on a stored track. Vehicle and
// weather fall back to their defaults when omitted.
type OptimalRequest struct {
	TrackID string          `json:"trackId"`
	Vehicle *vehicle.Config `json:"vehicle,omitempty"`
	Weather *weather.Config `json:"weather,omitempty"`
	N       int             `json:"n,omitempty"`
}

func (s *Server) optimalHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		trackID := r.URL.Query().Get("track_id")
		if trackID == "" {
			httputil.BadRequest(w, "missing track_id")
			return
		}
		line, err := s.db.GetLine(trackID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, line)
	case http.MethodPost:
		var req OptimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid optimal request: %v", err))
			return
		}
		if req.TrackID == "" {
			httputil.BadRequest(w, "missing trackId")
			return
		}
		model, err := s.db.GetTrack(req.TrackID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		veh := vehicle.Default()
		if req.Vehicle != nil {
			veh = *req.Vehicle
		}
		wx := weather.Default()
		if req.Weather != nil {
			wx = *req.Weather
		}
		cfg := raceline.DefaultConfig()
		if req.N > 0 {
			cfg.N = req.N
		}

		line, err := raceline.Generate(model, veh, wx, cfg)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		if _, err := s.db.SaveLine(req.TrackID, veh.Name, line); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("save line: %v", err))
			return
		}
		httputil.WriteJSONOK(w, line)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// writePipelineError maps the pipeline's inspectable error values to
// distinct statuses so callers can present specific remediation.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, track.ErrNoData):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, "no track found in survey data")
	case errors.Is(err, track.ErrDegenerateGeometry), errors.Is(err, raceline.ErrDegenerateGeometry):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, trackdb.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}
