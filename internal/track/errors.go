package track

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the survey contains no usable fragments. No
// partial model is produced.
var ErrNoData = errors.New("no track data found")

// ErrDegenerateGeometry is returned when the surveyed geometry collapses to
// a point or line and cannot form a track.
var ErrDegenerateGeometry = errors.New("degenerate track geometry")

// StitchWarning records an incomplete stitch. It is a soft condition, not an
// error: the assembler returns the chain it built and the caller decides
// whether the truncated result is acceptable.
type StitchWarning struct {
	// GapMeters is the smallest endpoint gap that exceeded the threshold.
	GapMeters float64 `json:"gapMeters"`
	// Unused is the number of track fragments left out of the chain.
	Unused int `json:"unused"`
}

func (w *StitchWarning) String() string {
	return fmt.Sprintf("stitching stopped at %.1fm gap with %d fragments unused", w.GapMeters, w.Unused)
}
