package ingestor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

// TranslateGGA converts a raw NMEA GGA sentence into a location
// report, the same shape the API accepts as a POST body. Trackers
// without their own JSON encoder publish the sentence as-is and the
// gateway does the translation.
func TranslateGGA(raw, uid string, now time.Time) (map[string]interface{}, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse NMEA sentence: %w", err)
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok {
		return nil, fmt.Errorf("expected GGA sentence, got %s", sentence.DataType())
	}

	// Quality codes are single digits on the wire; anything
	// unparseable is treated as no fix.
	fixQuality, err := strconv.Atoi(gga.FixQuality)
	if err != nil {
		fixQuality = 0
	}

	report := map[string]interface{}{
		"latitude":        gga.Latitude,
		"longitude":       gga.Longitude,
		"hdop":            gga.HDOP,
		"timestamp":       now.Unix(),
		"utc":             ggaUTC(gga.Time),
		"fix_quality":     fixQuality,
		"satellites":      gga.NumSatellites,
		"uid":             uid,
		"charging":        false,
		"battery_voltage": 0.0,
	}

	// A quality-0 sentence carries no usable position.
	if fixQuality == 0 {
		report["latitude"] = nil
		report["longitude"] = nil
		report["hdop"] = nil
	}

	return report, nil
}

// ggaUTC packs the GGA time-of-day as HHMMSS, matching what trackers
// report in the utc field of JSON payloads.
func ggaUTC(t nmea.Time) int64 {
	if !t.Valid {
		return 0
	}
	return int64(t.Hour)*10000 + int64(t.Minute)*100 + int64(t.Second)
}
