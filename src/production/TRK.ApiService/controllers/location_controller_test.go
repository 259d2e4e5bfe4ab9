package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
)

const testRetention = 30 * 24 * time.Hour

func newLocationTestRouter(sourceRepo *fakeSourceRepo, locationRepo *fakeLocationRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewLocationController(sourceRepo, locationRepo, testLogger(), testRetention).RegisterRoutes(router)
	return router
}

func validReport() map[string]interface{} {
	return map[string]interface{}{
		"latitude":        52.379,
		"longitude":       4.9,
		"hdop":            1.2,
		"timestamp":       1700000000,
		"utc":             123519,
		"fix_quality":     1,
		"satellites":      7,
		"uid":             "fix-1",
		"charging":        true,
		"battery_voltage": 3.7,
	}
}

func postLocation(t *testing.T, router *gin.Engine, source string, report map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(report)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/source/"+source+"/location", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func seedLocation(repo *fakeLocationRepo, source, uid string, timestamp int64, fixQuality int) {
	lat := 52.0
	lon := 4.0
	repo.locations = append(repo.locations, trkmodels.Location{
		SourceID:   source,
		Latitude:   &lat,
		Longitude:  &lon,
		Timestamp:  timestamp,
		FixQuality: fixQuality,
		UID:        uid,
	})
}

func TestPostLocationCreatesSource(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	locationRepo := newFakeLocationRepo()
	router := newLocationTestRouter(sourceRepo, locationRepo)

	w := postLocation(t, router, "alpha", validReport())

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.Len(t, sourceRepo.sources, 1)
	assert.Equal(t, "alpha", sourceRepo.sources["alpha"].ID())

	require.Len(t, locationRepo.locations, 1)
	stored := locationRepo.locations[0]
	assert.Equal(t, "alpha", stored.SourceID)
	require.NotNil(t, stored.Latitude)
	assert.InDelta(t, 52.379, *stored.Latitude, 1e-9)
}

func TestPostLocationStampsExpiry(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	locationRepo := newFakeLocationRepo()
	router := newLocationTestRouter(sourceRepo, locationRepo)

	// The caller-supplied timestamp must not influence expiry.
	report := validReport()
	report["timestamp"] = 1

	w := postLocation(t, router, "alpha", report)
	require.Equal(t, http.StatusOK, w.Code)

	want := float64(time.Now().Add(testRetention).Unix())
	require.Len(t, locationRepo.locations, 1)
	assert.InDelta(t, want, locationRepo.locations[0].ExpiryTimestamp, 5)
}

func TestPostLocationMissingFieldRejected(t *testing.T) {
	router := newLocationTestRouter(newFakeSourceRepo(), newFakeLocationRepo())

	report := validReport()
	delete(report, "battery_voltage")

	w := postLocation(t, router, "alpha", report)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "battery_voltage")
}

func TestPostLocationAppendOnly(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	locationRepo := newFakeLocationRepo()
	router := newLocationTestRouter(sourceRepo, locationRepo)

	first := validReport()
	first["uid"] = "fix-1"
	second := validReport()
	second["uid"] = "fix-2"

	require.Equal(t, http.StatusOK, postLocation(t, router, "alpha", first).Code)
	require.Equal(t, http.StatusOK, postLocation(t, router, "alpha", second).Code)

	require.Len(t, locationRepo.locations, 2)
	assert.Equal(t, "fix-1", locationRepo.locations[0].UID)
	assert.Equal(t, "fix-2", locationRepo.locations[1].UID)
	assert.Len(t, sourceRepo.sources, 1)
}

func TestLastSeenExcludesInvalidFixes(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	seedLocation(locationRepo, "alpha", "a", 10, 1)
	seedLocation(locationRepo, "alpha", "b", 20, 0)
	seedLocation(locationRepo, "alpha", "c", 30, 1)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/locations/last_seen/10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var locations []trkmodels.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 2)
	for _, location := range locations {
		assert.NotEqual(t, trkmodels.InvalidFixQuality, location.FixQuality)
	}
}

func TestLastPingIncludesInvalidFixes(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	seedLocation(locationRepo, "alpha", "a", 10, 1)
	seedLocation(locationRepo, "alpha", "b", 20, 0)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/locations/last_ping/10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var locations []trkmodels.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 2)
	assert.Equal(t, trkmodels.InvalidFixQuality, locations[1].FixQuality)
}

func TestLastPingOrdersByTimestampDescending(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	// Insertion order deliberately differs from timestamp order.
	seedLocation(locationRepo, "alpha", "a", 10, 1)
	seedLocation(locationRepo, "alpha", "b", 30, 1)
	seedLocation(locationRepo, "alpha", "c", 20, 1)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/locations/last_ping/3", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var locations []trkmodels.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 3)

	timestamps := []int64{locations[0].Timestamp, locations[1].Timestamp, locations[2].Timestamp}
	assert.Equal(t, []int64{30, 20, 10}, timestamps)
}

func TestLastSeenSingleReturnsEmptyObject(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	// Only an invalid fix exists, which last_seen must not surface.
	seedLocation(locationRepo, "alpha", "a", 10, 0)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/location/last_seen", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestLastSeenSingleReturnsNewestValidFix(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	seedLocation(locationRepo, "alpha", "a", 10, 1)
	seedLocation(locationRepo, "alpha", "b", 20, 1)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/location/last_seen", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var location trkmodels.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &location))
	assert.Equal(t, int64(20), location.Timestamp)
}

func TestLastPingSingleReturnsList(t *testing.T) {
	locationRepo := newFakeLocationRepo()
	seedLocation(locationRepo, "alpha", "a", 10, 0)
	router := newLocationTestRouter(newFakeSourceRepo(), locationRepo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/location/last_ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var locations []trkmodels.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 1)
	assert.Equal(t, int64(10), locations[0].Timestamp)
}

func TestLastSeenInvalidLimitRejected(t *testing.T) {
	router := newLocationTestRouter(newFakeSourceRepo(), newFakeLocationRepo())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/source/alpha/locations/last_seen/many", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
