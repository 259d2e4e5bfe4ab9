package controllers

import (
	"context"
	"sort"

	config "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Config"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
	interfaces "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Repository/Interfaces"
)

// In-memory repositories mirroring the store facade semantics, wired
// through the repository interfaces in place of the mongo client.

type fakeSourceRepo struct {
	sources map[string]trkmodels.Source
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{sources: make(map[string]trkmodels.Source)}
}

func (f *fakeSourceRepo) UpsertSource(ctx context.Context, id string) error {
	source, ok := f.sources[id]
	if !ok {
		source = trkmodels.Source{}
	}
	source["id"] = id
	f.sources[id] = source
	return nil
}

func (f *fakeSourceRepo) GetSource(ctx context.Context, id string) (trkmodels.Source, error) {
	source, ok := f.sources[id]
	if !ok {
		return nil, nil
	}
	return source, nil
}

func (f *fakeSourceRepo) ListSources(ctx context.Context) ([]trkmodels.Source, error) {
	ids := make([]string, 0, len(f.sources))
	for id := range f.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources := []trkmodels.Source{}
	for _, id := range ids {
		sources = append(sources, f.sources[id])
	}
	return sources, nil
}

func (f *fakeSourceRepo) MergeSourceProperties(ctx context.Context, id string, properties map[string]interface{}) (trkmodels.Source, error) {
	source, ok := f.sources[id]
	if !ok {
		return nil, interfaces.ErrSourceNotFound
	}
	for key, value := range properties {
		source[key] = value
	}
	return source, nil
}

type fakeLocationRepo struct {
	locations []trkmodels.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{}
}

func (f *fakeLocationRepo) InsertLocation(ctx context.Context, location trkmodels.Location) error {
	f.locations = append(f.locations, location)
	return nil
}

func (f *fakeLocationRepo) ListLocations(ctx context.Context, source string) ([]trkmodels.Location, error) {
	matched := f.filter(source, false)
	sort.SliceStable(matched, func(a, b int) bool {
		return matched[a].Timestamp > matched[b].Timestamp
	})
	return matched, nil
}

func (f *fakeLocationRepo) LastSeen(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error) {
	matched := f.filter(source, true)
	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].FixQuality != matched[b].FixQuality {
			return matched[a].FixQuality < matched[b].FixQuality
		}
		return matched[a].Timestamp > matched[b].Timestamp
	})
	return clip(matched, limit), nil
}

func (f *fakeLocationRepo) LastPing(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error) {
	matched := f.filter(source, false)
	sort.SliceStable(matched, func(a, b int) bool {
		return matched[a].Timestamp > matched[b].Timestamp
	})
	return clip(matched, limit), nil
}

func (f *fakeLocationRepo) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (f *fakeLocationRepo) filter(source string, validOnly bool) []trkmodels.Location {
	matched := []trkmodels.Location{}
	for _, location := range f.locations {
		if source != "" && location.SourceID != source {
			continue
		}
		if validOnly && location.FixQuality == trkmodels.InvalidFixQuality {
			continue
		}
		matched = append(matched, location)
	}
	return matched
}

func clip(locations []trkmodels.Location, limit int64) []trkmodels.Location {
	if int64(len(locations)) > limit {
		return locations[:limit]
	}
	return locations
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
}
