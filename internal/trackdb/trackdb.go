// Package trackdb persists finalized track models and computed optimal
// lines in sqlite. Models are stored whole as JSON alongside the metadata
// columns the listing and report surfaces need.
package trackdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/apexdata/trackline/internal/raceline"
	"github.com/apexdata/trackline/internal/track"
)

// ErrNotFound is returned when a track or line id does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps the sqlite connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	// Pragmas ride on the DSN so every pooled connection gets them: a busy
	// timeout against transient locks when the CLI and server share a file,
	// and foreign keys for the track -> line cascade.
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// TrackRecord is one row of the track listing.
type TrackRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TotalLengthM      float64   `json:"totalLengthMeters"`
	CenterLat         float64   `json:"centerLat"`
	CenterLon         float64   `json:"centerLon"`
	ElevationDegraded bool      `json:"elevationDegraded"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SaveTrack stores a finalized model and returns its new id.
func (db *DB) SaveTrack(model *track.Model) (string, error) {
	blob, err := json.Marshal(model)
	if err != nil {
		return "", fmt.Errorf("marshal track model: %w", err)
	}
	id := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO tracks (id, name, total_length_m, center_lat, center_lon, elevation_degraded, model_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, model.Name, model.TotalLength, model.Center.Lat, model.Center.Lon,
		boolToInt(model.ElevationDegraded), string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("insert track: %w", err)
	}
	return id, nil
}

// GetTrack loads a stored model by id.
func (db *DB) GetTrack(id string) (*track.Model, error) {
	var blob string
	err := db.QueryRow(`SELECT model_json FROM tracks WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var model track.Model
	if err := json.Unmarshal([]byte(blob), &model); err != nil {
		return nil, fmt.Errorf("unmarshal track model: %w", err)
	}
	return &model, nil
}

// ListTracks returns the stored tracks, newest first.
func (db *DB) ListTracks() ([]TrackRecord, error) {
	rows, err := db.Query(`
		SELECT id, name, total_length_m, center_lat, center_lon, elevation_degraded, created_at
		FROM tracks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackRecord
	for rows.Next() {
		var rec TrackRecord
		var degraded int
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.TotalLengthM,
			&rec.CenterLat, &rec.CenterLon, &degraded, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ElevationDegraded = degraded != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteTrack removes a track and its computed lines.
func (db *DB) DeleteTrack(id string) error {
	res, err := db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveLine stores a computed optimal line for a track.
func (db *DB) SaveLine(trackID, vehicleName string, line *raceline.Result) (string, error) {
	blob, err := json.Marshal(line)
	if err != nil {
		return "", fmt.Errorf("marshal optimal line: %w", err)
	}
	id := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO optimal_lines (id, track_id, vehicle_name, grip, lap_time_s, line_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, trackID, vehicleName, line.Grip, line.LapTime, string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("insert optimal line: %w", err)
	}
	return id, nil
}

// GetLine loads the most recent optimal line stored for a track.
func (db *DB) GetLine(trackID string) (*raceline.Result, error) {
	var blob string
	err := db.QueryRow(`
		SELECT line_json FROM optimal_lines
		WHERE track_id = ? ORDER BY created_at DESC LIMIT 1`, trackID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("line for track %s: %w", trackID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var line raceline.Result
	if err := json.Unmarshal([]byte(blob), &line); err != nil {
		return nil, fmt.Errorf("unmarshal optimal line: %w", err)
	}
	return &line, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
