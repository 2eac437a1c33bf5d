package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/reservation-gateway/internal/models"
	"github.com/smarttransit/reservation-gateway/internal/services"
)

type stubLocationSource struct {
	lat, lon float64
}

func (s *stubLocationSource) BusLocation(ctx context.Context, busID int64) (*models.LocationSample, error) {
	return &models.LocationSample{
		BusID:      busID,
		Latitude:   s.lat,
		Longitude:  s.lon,
		ObservedAt: time.Now(),
	}, nil
}

func setupTrackingRouter() (*gin.Engine, *services.TrackingService) {
	gin.SetMode(gin.TestMode)

	tracking := services.NewTrackingService(&stubLocationSource{lat: 6.9271, lon: 79.8612}, time.Hour, testLogger())
	handler := NewTrackingHandler(tracking)

	router := gin.New()
	router.POST("/api/v1/tracking/:busId/start", handler.StartTracking)
	router.POST("/api/v1/tracking/:busId/stop", handler.StopTracking)
	router.GET("/api/v1/tracking/:busId/location", handler.GetLocation)
	return router, tracking
}

func TestTrackingLifecycle(t *testing.T) {
	router, tracking := setupTrackingRouter()
	defer tracking.StopAll()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tracking/12/start", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tracking.Tracking(12))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tracking/12/location", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"location"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 6.9271, body.Location.Lat, 0.0001)
	assert.InDelta(t, 79.8612, body.Location.Lon, 0.0001)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tracking/12/stop", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, tracking.Tracking(12))
}

func TestTrackingInvalidBusID(t *testing.T) {
	router, tracking := setupTrackingRouter()
	defer tracking.StopAll()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tracking/zero/location", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
