// Package geofence decides whether a reported position falls inside an
// artwork's acceptance boundary. It supports a live device provider and an
// operator-supplied mock override, mutually exclusive by construction.
package geofence

import (
	"errors"
	"time"

	"presence/internal/geo"
)

// Acquisition errors. These mean "no verdict available", which is distinct
// from a definite out-of-range answer.
var (
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationTimeout     = errors.New("location acquisition timed out")
)

// DefaultAcquireTimeout bounds how long a one-shot fix may take before the
// evaluator gives up and surfaces ErrLocationTimeout.
const DefaultAcquireTimeout = 10 * time.Second

// Target is a circular acceptance boundary around one artwork site.
type Target struct {
	Center  geo.Coordinate
	RadiusM float64
}

// Verdict is the outcome of one proximity evaluation.
type Verdict struct {
	WithinRange    bool
	DistanceMeters float64
}

// Evaluate computes the verdict for a user position against a target. The
// boundary is inclusive: exactly on the radius counts as within range.
func Evaluate(user geo.Coordinate, target Target) Verdict {
	d := geo.DistanceMeters(user, target.Center)
	return Verdict{
		WithinRange:    d <= target.RadiusM,
		DistanceMeters: d,
	}
}
