package ingestor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentence appends the NMEA checksum so tests stay readable.
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func TestTranslateGGA(t *testing.T) {
	raw := sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	now := time.Unix(1700000000, 0)

	report, err := TranslateGGA(raw, "alpha", now)
	require.NoError(t, err)

	assert.InDelta(t, 48.1173, report["latitude"].(float64), 1e-4)
	assert.InDelta(t, 11.5167, report["longitude"].(float64), 1e-4)
	assert.InDelta(t, 0.9, report["hdop"].(float64), 1e-9)
	assert.EqualValues(t, 1, report["fix_quality"])
	assert.EqualValues(t, 8, report["satellites"])
	assert.EqualValues(t, 123519, report["utc"])
	assert.EqualValues(t, 1700000000, report["timestamp"])
	assert.Equal(t, "alpha", report["uid"])
	assert.Equal(t, false, report["charging"])
	assert.Equal(t, 0.0, report["battery_voltage"])
}

func TestTranslateGGANoFix(t *testing.T) {
	raw := sentence("GPGGA,123519,0000.000,N,00000.000,E,0,00,0.0,0.0,M,0.0,M,,")

	report, err := TranslateGGA(raw, "alpha", time.Now())
	require.NoError(t, err)

	// A quality-0 sentence carries no usable position.
	assert.EqualValues(t, 0, report["fix_quality"])
	assert.Nil(t, report["latitude"])
	assert.Nil(t, report["longitude"])
	assert.Nil(t, report["hdop"])
}

func TestTranslateGGARejectsOtherSentences(t *testing.T) {
	raw := sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")

	_, err := TranslateGGA(raw, "alpha", time.Now())
	assert.Error(t, err)
}

func TestTranslateGGARejectsGarbage(t *testing.T) {
	_, err := TranslateGGA("$GPGGA,broken*00", "alpha", time.Now())
	assert.Error(t, err)
}

func TestDecodePayloadJSON(t *testing.T) {
	payload := []byte(`{"latitude": 52.0, "uid": "fix-1"}`)

	report, err := decodePayload("alpha", payload)
	require.NoError(t, err)
	assert.Equal(t, 52.0, report["latitude"])
	assert.Equal(t, "fix-1", report["uid"])
}

func TestDecodePayloadNMEA(t *testing.T) {
	raw := sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")

	report, err := decodePayload("alpha", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "alpha", report["uid"])
	assert.EqualValues(t, 1, report["fix_quality"])
}

func TestDecodePayloadInvalidJSON(t *testing.T) {
	_, err := decodePayload("alpha", []byte("not json"))
	assert.Error(t, err)
}
