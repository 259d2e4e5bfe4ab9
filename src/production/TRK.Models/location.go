package trkmodels

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is one immutable GPS fix owned by a source. Locations are
// append-only: there is no update or delete path.
type Location struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SourceID string             `bson:"source_id" json:"source_id"`

	// Nullable: devices without a fix report null lat/lon/hdop.
	Latitude  *float64 `bson:"latitude" json:"latitude"`
	Longitude *float64 `bson:"longitude" json:"longitude"`
	Hdop      *float64 `bson:"hdop" json:"hdop"`

	Timestamp  int64  `bson:"timestamp" json:"timestamp"`
	UTC        int64  `bson:"utc" json:"utc"`
	FixQuality int    `bson:"fix_quality" json:"fix_quality"`
	Satellites int    `bson:"satellites" json:"satellites"`
	UID        string `bson:"uid" json:"uid"`

	Charging       bool    `bson:"charging" json:"charging"`
	BatteryVoltage float64 `bson:"battery_voltage" json:"battery_voltage"`

	// Epoch seconds after which a store-side TTL policy may drop the fix.
	ExpiryTimestamp float64 `bson:"expiry_timestamp" json:"expiry_timestamp"`
}

// InvalidFixQuality is the fix_quality code reported for fixes with no
// positional validity. Such fixes still count as pings.
const InvalidFixQuality = 0

// ParseLocationReport builds a Location from a decoded report body.
// All report keys are required; lat/lon/hdop may be null. Numeric
// fields accept JSON numbers as well as numeric strings, with no range
// validation. expiry_timestamp is stamped as now + retention.
func ParseLocationReport(source string, report map[string]interface{}, now time.Time, retention time.Duration) (*Location, error) {
	lat, err := nullableFloatField(report, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := nullableFloatField(report, "longitude")
	if err != nil {
		return nil, err
	}
	hdop, err := nullableFloatField(report, "hdop")
	if err != nil {
		return nil, err
	}
	timestamp, err := intField(report, "timestamp")
	if err != nil {
		return nil, err
	}
	utc, err := intField(report, "utc")
	if err != nil {
		return nil, err
	}
	fixQuality, err := intField(report, "fix_quality")
	if err != nil {
		return nil, err
	}
	satellites, err := intField(report, "satellites")
	if err != nil {
		return nil, err
	}
	uid, err := stringField(report, "uid")
	if err != nil {
		return nil, err
	}
	charging, err := boolField(report, "charging")
	if err != nil {
		return nil, err
	}
	batteryVoltage, err := floatField(report, "battery_voltage")
	if err != nil {
		return nil, err
	}

	return &Location{
		SourceID:        source,
		Latitude:        lat,
		Longitude:       lon,
		Hdop:            hdop,
		Timestamp:       timestamp,
		UTC:             utc,
		FixQuality:      int(fixQuality),
		Satellites:      int(satellites),
		UID:             uid,
		Charging:        charging,
		BatteryVoltage:  batteryVoltage,
		ExpiryTimestamp: ExpiryTimestamp(now, retention),
	}, nil
}

// ExpiryTimestamp returns now + retention as float epoch seconds.
func ExpiryTimestamp(now time.Time, retention time.Duration) float64 {
	return float64(now.Add(retention).UnixNano()) / float64(time.Second)
}

func requireField(report map[string]interface{}, key string) (interface{}, error) {
	value, ok := report[key]
	if !ok {
		return nil, fmt.Errorf("missing required field %q", key)
	}
	return value, nil
}

func nullableFloatField(report map[string]interface{}, key string) (*float64, error) {
	value, err := requireField(report, key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	f, err := coerceFloat(value)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return &f, nil
}

func floatField(report map[string]interface{}, key string) (float64, error) {
	value, err := requireField(report, key)
	if err != nil {
		return 0, err
	}
	f, err := coerceFloat(value)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return f, nil
}

func intField(report map[string]interface{}, key string) (int64, error) {
	value, err := requireField(report, key)
	if err != nil {
		return 0, err
	}
	i, err := coerceInt(value)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return i, nil
}

func stringField(report map[string]interface{}, key string) (string, error) {
	value, err := requireField(report, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, value)
	}
	return s, nil
}

func boolField(report map[string]interface{}, key string) (bool, error) {
	value, err := requireField(report, key)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", key, value)
	}
	return b, nil
}

func coerceFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", value)
	}
}

func coerceInt(value interface{}) (int64, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to int", value)
	}
}
