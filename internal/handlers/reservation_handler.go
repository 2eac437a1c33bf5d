package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/reservation-gateway/internal/middleware"
	"github.com/smarttransit/reservation-gateway/internal/models"
	"github.com/smarttransit/reservation-gateway/internal/services"
)

type ReservationHandler struct {
	reservations *services.ReservationService
}

func NewReservationHandler(reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// GetBusStops returns the cached bus-stop list
// GET /api/v1/bus-stops
func (h *ReservationHandler) GetBusStops(c *gin.Context) {
	stops, stale, err := h.reservations.Stops(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch bus stops"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stops": stops,
		"stale": stale,
	})
}

// SearchTrips searches trips between two stops on a date
// GET /api/v1/trips/search?sourceId=&destinationId=&date=
func (h *ReservationHandler) SearchTrips(c *gin.Context) {
	var query models.TripSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return
	}

	trips, err := h.reservations.Search(c.Request.Context(), query)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Trip search failed"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

// ToggleReservation flips a trip in and out of the session's reserved set
// POST /api/v1/reservations/:tripId/toggle
func (h *ReservationHandler) ToggleReservation(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	tripID, err := strconv.ParseInt(c.Param("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip id"})
		return
	}

	reserved, set, err := h.reservations.Toggle(sessionID, tripID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reservations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trip_id":        tripID,
		"reserved":       reserved,
		"reserved_trips": set.IDs(),
	})
}

// GetReservations returns the session's reserved trip ids
// GET /api/v1/reservations
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	set, err := h.reservations.Reservations(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reservations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reserved_trips": set.IDs()})
}
