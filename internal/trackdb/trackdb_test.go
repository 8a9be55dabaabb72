package trackdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdata/trackline/internal/geo"
	"github.com/apexdata/trackline/internal/raceline"
	"github.com/apexdata/trackline/internal/track"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleModel() *track.Model {
	return &track.Model{
		Name:   "sample circuit",
		Center: geo.LatLon{Lat: 36.5841, Lon: -121.7534},
		Points: []track.SplinePoint{
			{X: 0, Y: 0, Z: 1, Dist: 0, Width: 12, Lat: 36.584, Lon: -121.753},
			{X: 10, Y: 0, Z: 2, Dist: 10, Width: 12, Lat: 36.5841, Lon: -121.753},
			{X: 10, Y: 10, Z: 0, Dist: 20, Width: 12, Lat: 36.5841, Lon: -121.7531},
		},
		TotalLength: 30,
		ScaleFactor: 1.0,
		Sectors:     track.SectorSet{S1End: track.Undefined, S2End: track.Undefined, S3End: 2},
	}
}

func TestSaveAndGetTrack(t *testing.T) {
	db := openTestDB(t)
	model := sampleModel()

	id, err := db.SaveTrack(model)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetTrack(id)
	require.NoError(t, err)
	if diff := cmp.Diff(model, got); diff != "" {
		t.Errorf("model round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetTrackNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetTrack("no-such-id")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestListTracks(t *testing.T) {
	db := openTestDB(t)

	m1 := sampleModel()
	m1.Name = "first"
	m2 := sampleModel()
	m2.Name = "second"
	m2.ElevationDegraded = true

	_, err := db.SaveTrack(m1)
	require.NoError(t, err)
	_, err = db.SaveTrack(m2)
	require.NoError(t, err)

	recs, err := db.ListTracks()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byName := map[string]TrackRecord{}
	for _, r := range recs {
		byName[r.Name] = r
	}
	assert.True(t, byName["second"].ElevationDegraded, "degraded flag lost")
	assert.Equal(t, 30.0, byName["first"].TotalLengthM)
	assert.Equal(t, 36.5841, byName["first"].CenterLat)
	assert.False(t, byName["first"].CreatedAt.IsZero(), "created_at not populated")
}

func TestDeleteTrack(t *testing.T) {
	db := openTestDB(t)
	id, err := db.SaveTrack(sampleModel())
	require.NoError(t, err)

	require.NoError(t, db.DeleteTrack(id))

	_, err = db.GetTrack(id)
	assert.True(t, errors.Is(err, ErrNotFound), "track survived deletion")

	err = db.DeleteTrack(id)
	assert.True(t, errors.Is(err, ErrNotFound), "double delete should be ErrNotFound, got %v", err)
}

func TestSaveAndGetLine(t *testing.T) {
	db := openTestDB(t)
	trackID, err := db.SaveTrack(sampleModel())
	require.NoError(t, err)

	line := &raceline.Result{
		Points: []raceline.Point{
			{X: 0, Y: 0, Dist: 0, Speed: 40, Curvature: 0.01, Grip: 1.4, LapTime: 95.2},
			{X: 5, Y: 1, Dist: 5, Speed: 42, Curvature: 0.02, Grip: 1.4, LapTime: 95.2},
		},
		Grip:    1.4,
		LapTime: 95.2,
	}
	_, err = db.SaveLine(trackID, "Toyota GR86 Cup Car", line)
	require.NoError(t, err)

	got, err := db.GetLine(trackID)
	require.NoError(t, err)
	if diff := cmp.Diff(line, got); diff != "" {
		t.Errorf("line round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetLineNotFound(t *testing.T) {
	db := openTestDB(t)
	trackID, err := db.SaveTrack(sampleModel())
	require.NoError(t, err)

	_, err = db.GetLine(trackID)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestDeleteTrackCascadesLines(t *testing.T) {
	db := openTestDB(t)
	trackID, err := db.SaveTrack(sampleModel())
	require.NoError(t, err)
	_, err = db.SaveLine(trackID, "car", &raceline.Result{Grip: 1, LapTime: 1})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTrack(trackID))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM optimal_lines WHERE track_id = ?`, trackID).Scan(&n))
	assert.Equal(t, 0, n, "orphan lines left after track deletion")
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	db.Close()

	// Reopening an already-migrated database must be a no-op.
	db, err = Open(path)
	require.NoError(t, err)
	db.Close()
}
