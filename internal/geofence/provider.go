package geofence

import (
	"context"

	"presence/internal/geo"
)

// Sample is one position report from a live provider. Either Coord is valid
// or Err explains why no fix was available; a failed sample never carries a
// stale coordinate.
type Sample struct {
	Coord geo.Coordinate
	Err   error
}

// LocationProvider abstracts the device/OS positioning source.
type LocationProvider interface {
	// Current returns a single fix. It must honor ctx cancellation and
	// deadline; on failure it returns one of the acquisition errors.
	Current(ctx context.Context) (geo.Coordinate, error)

	// Watch streams fixes until ctx is cancelled, then closes the channel.
	// The underlying OS subscription must be released on cancellation.
	Watch(ctx context.Context) (<-chan Sample, error)
}
