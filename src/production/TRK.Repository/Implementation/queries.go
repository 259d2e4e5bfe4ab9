package implementation

import (
	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
	"go.mongodb.org/mongo-driver/bson"
)

// Query shapes for the locations collection. Kept as plain builders so
// the filter/sort semantics can be asserted without a live store.

func locationsFilter(source string) bson.M {
	filter := bson.M{}
	if source != "" {
		filter["source_id"] = source
	}
	return filter
}

func lastSeenFilter(source string) bson.M {
	return bson.M{
		"source_id":   source,
		"fix_quality": bson.M{"$ne": trkmodels.InvalidFixQuality},
	}
}

// lastSeenSort reproduces the historical ordering: fix_quality
// ascending, then timestamp descending within a quality bucket.
func lastSeenSort() bson.D {
	return bson.D{
		{Key: "fix_quality", Value: 1},
		{Key: "timestamp", Value: -1},
	}
}

func lastPingSort() bson.D {
	return bson.D{{Key: "timestamp", Value: -1}}
}
