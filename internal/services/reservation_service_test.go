package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/reservation-gateway/internal/database"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

func TestReservationServiceStops(t *testing.T) {
	t.Run("Fetches Once Then Serves Cache", func(t *testing.T) {
		directory := &fakeTripDirectory{stops: []models.BusStop{{ID: 1, Name: "Pettah"}}}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		stops, stale, err := svc.Stops(context.Background())
		require.NoError(t, err)
		assert.False(t, stale)
		assert.Len(t, stops, 1)

		_, _, err = svc.Stops(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, directory.stopCalls)
	})

	t.Run("First Fetch Failure Surfaces", func(t *testing.T) {
		directory := &fakeTripDirectory{stopsErr: fmt.Errorf("upstream down")}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		_, _, err := svc.Stops(context.Background())
		assert.Error(t, err)
	})

	t.Run("Failed Refresh Keeps Previous Snapshot", func(t *testing.T) {
		directory := &fakeTripDirectory{stops: []models.BusStop{{ID: 1, Name: "Pettah"}}}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		_, _, err := svc.Stops(context.Background())
		require.NoError(t, err)

		directory.stopsErr = fmt.Errorf("upstream down")
		assert.Error(t, svc.RefreshStops(context.Background()))

		stops, stale, err := svc.Stops(context.Background())
		require.NoError(t, err)
		assert.Len(t, stops, 1)
		assert.True(t, stale)
	})

	t.Run("Successful Refresh Clears Staleness", func(t *testing.T) {
		directory := &fakeTripDirectory{stops: []models.BusStop{{ID: 1, Name: "Pettah"}}}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		_, _, err := svc.Stops(context.Background())
		require.NoError(t, err)

		directory.stopsErr = fmt.Errorf("upstream down")
		assert.Error(t, svc.RefreshStops(context.Background()))

		directory.stopsErr = nil
		require.NoError(t, svc.RefreshStops(context.Background()))

		_, stale, err := svc.Stops(context.Background())
		require.NoError(t, err)
		assert.False(t, stale)
	})
}

func TestReservationServiceSearch(t *testing.T) {
	t.Run("Invalid Query Never Reaches Upstream", func(t *testing.T) {
		directory := &fakeTripDirectory{searchErr: fmt.Errorf("should not be called")}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		_, err := svc.Search(context.Background(), models.TripSearchQuery{SourceID: 1, DestinationID: 1, Date: "2026-09-01"})
		require.Error(t, err)

		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("Valid Query Delegates", func(t *testing.T) {
		directory := &fakeTripDirectory{trips: map[int64]models.Trip{7: {ID: 7}}}
		svc := NewReservationService(directory, database.NewMemoryReservationStore(), testLogger())

		trips, err := svc.Search(context.Background(), models.TripSearchQuery{SourceID: 1, DestinationID: 2, Date: "2026-09-01"})
		require.NoError(t, err)
		assert.Len(t, trips, 1)
	})
}

func TestReservationServiceToggle(t *testing.T) {
	store := database.NewMemoryReservationStore()
	svc := NewReservationService(&fakeTripDirectory{}, store, testLogger())

	t.Run("Toggle On Persists", func(t *testing.T) {
		reserved, set, err := svc.Toggle("session-1", 7)
		require.NoError(t, err)
		assert.True(t, reserved)
		assert.Equal(t, models.ReservedTripSet{7}, set)

		loaded, err := svc.Reservations("session-1")
		require.NoError(t, err)
		assert.Equal(t, models.ReservedTripSet{7}, loaded)
	})

	t.Run("Toggle Off Persists", func(t *testing.T) {
		reserved, set, err := svc.Toggle("session-1", 7)
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Empty(t, set)

		loaded, err := svc.Reservations("session-1")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		_, _, err := svc.Toggle("session-a", 3)
		require.NoError(t, err)
		_, _, err = svc.Toggle("session-b", 5)
		require.NoError(t, err)

		setA, _ := svc.Reservations("session-a")
		setB, _ := svc.Reservations("session-b")
		assert.Equal(t, models.ReservedTripSet{3}, setA)
		assert.Equal(t, models.ReservedTripSet{5}, setB)
	})
}
