package implementation

import (
	"context"
	"fmt"
	"time"

	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoLocationRepository struct {
	coll *mongo.Collection
}

func NewMongoLocationRepository(coll *mongo.Collection) *MongoLocationRepository {
	return &MongoLocationRepository{coll: coll}
}

func (r *MongoLocationRepository) InsertLocation(ctx context.Context, location trkmodels.Location) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to insert location for source %q: %w", location.SourceID, err)
	}
	return nil
}

func (r *MongoLocationRepository) ListLocations(ctx context.Context, source string) ([]trkmodels.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, locationsFilter(source), options.Find().SetSort(lastPingSort()))
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeLocations(ctx, cursor)
}

func (r *MongoLocationRepository) LastSeen(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(lastSeenSort()).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, lastSeenFilter(source), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query last seen for source %q: %w", source, err)
	}
	defer cursor.Close(ctx)

	return decodeLocations(ctx, cursor)
}

func (r *MongoLocationRepository) LastPing(ctx context.Context, source string, limit int64) ([]trkmodels.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(lastPingSort()).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, locationsFilter(source), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query last ping for source %q: %w", source, err)
	}
	defer cursor.Close(ctx)

	return decodeLocations(ctx, cursor)
}

// EnsureIndexes creates the indexes backing the last_seen and
// last_ping query shapes. Called once at startup.
func (r *MongoLocationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "source_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "source_id", Value: 1},
				{Key: "fix_quality", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create location indexes: %w", err)
	}
	return nil
}

func decodeLocations(ctx context.Context, cursor *mongo.Cursor) ([]trkmodels.Location, error) {
	locations := []trkmodels.Location{}
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locations, nil
}
