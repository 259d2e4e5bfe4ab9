package implementation

import (
	"context"
	"fmt"
	"time"

	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
	interfaces "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSourceRepository struct {
	coll *mongo.Collection
}

func NewMongoSourceRepository(coll *mongo.Collection) *MongoSourceRepository {
	return &MongoSourceRepository{coll: coll}
}

func (r *MongoSourceRepository) UpsertSource(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// $set only touches the id property, so metadata merged in by
	// earlier source updates survives repeated location posts.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"id": id}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source %q: %w", id, err)
	}
	return nil
}

func (r *MongoSourceRepository) GetSource(ctx context.Context, id string) (trkmodels.Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var source trkmodels.Source
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(withoutObjectID())).Decode(&source)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get source %q: %w", id, err)
	}

	return source, nil
}

func (r *MongoSourceRepository) ListSources(ctx context.Context) ([]trkmodels.Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(withoutObjectID()))
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer cursor.Close(ctx)

	sources := []trkmodels.Source{}
	if err := cursor.All(ctx, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}

	return sources, nil
}

func (r *MongoSourceRepository) MergeSourceProperties(ctx context.Context, id string, properties map[string]interface{}) (trkmodels.Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Mongo rejects an empty $set; an empty merge is just a read.
	if len(properties) == 0 {
		source, err := r.GetSource(ctx, id)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, interfaces.ErrSourceNotFound
		}
		return source, nil
	}

	var merged trkmodels.Source
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": properties},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(withoutObjectID()),
	).Decode(&merged)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to update source %q: %w", id, err)
	}

	return merged, nil
}

// withoutObjectID excludes the raw _id from reads; the id property
// already carries the identifier in responses.
func withoutObjectID() bson.M {
	return bson.M{"_id": 0}
}
