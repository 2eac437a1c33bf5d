package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationClientBusLocation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/bus/location/12", r.URL.Path)
			w.Write([]byte(`{"location":{"lat":6.9271,"lon":79.8612}}`))
		}))
		defer server.Close()

		client := NewLocationClient(server.URL, 5*time.Second, testLogger())

		sample, err := client.BusLocation(context.Background(), 12)
		require.NoError(t, err)
		assert.Equal(t, int64(12), sample.BusID)
		assert.InDelta(t, 6.9271, sample.Latitude, 0.0001)
		assert.InDelta(t, 79.8612, sample.Longitude, 0.0001)
		assert.False(t, sample.ObservedAt.IsZero())
	})

	t.Run("Upstream Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewLocationClient(server.URL, 5*time.Second, testLogger())

		_, err := client.BusLocation(context.Background(), 12)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}
