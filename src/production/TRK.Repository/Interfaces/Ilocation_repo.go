package interfaces

import (
	"context"

	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
)

type LocationRepository interface {
	// Insert a fix (append-only; locations are never updated)
	InsertLocation(ctx context.Context, location trkmodels.Location) error

	// All fixes ordered by timestamp descending, optionally filtered
	// to one source. Unbounded result size.
	ListLocations(ctx context.Context, source string) ([]trkmodels.Location, error)

	// Up to limit valid fixes (fix_quality != 0) for a source, ordered
	// by fix_quality ascending then timestamp descending.
	LastSeen(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error)

	// Up to limit fixes for a source regardless of validity, ordered
	// by timestamp descending. Used for liveness checks.
	LastPing(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error)

	// Create the indexes backing the query shapes above.
	EnsureIndexes(ctx context.Context) error
}
