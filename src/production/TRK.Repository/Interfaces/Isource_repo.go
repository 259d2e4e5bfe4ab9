package interfaces

import (
	"context"
	"errors"

	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
)

// ErrSourceNotFound is returned by property merges against a source
// that was never registered. Unlike location posting, the update path
// deliberately does not create missing sources.
var ErrSourceNotFound = errors.New("source not found")

type SourceRepository interface {
	// Ensure a source exists for the given id (idempotent upsert).
	// Existing properties are preserved.
	UpsertSource(ctx context.Context, id string) error

	// Read sources. GetSource returns (nil, nil) when absent.
	GetSource(ctx context.Context, id string) (trkmodels.Source, error)
	ListSources(ctx context.Context) ([]trkmodels.Source, error)

	// Merge caller-supplied properties into an existing source and
	// return the merged document. Returns ErrSourceNotFound if the
	// source does not exist.
	MergeSourceProperties(ctx context.Context, id string, properties map[string]interface{}) (trkmodels.Source, error)
}
