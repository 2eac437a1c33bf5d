package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/reservation-gateway/internal/services"
)

type TrackingHandler struct {
	tracking *services.TrackingService
}

func NewTrackingHandler(tracking *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// StartTracking begins polling the bus's live position
// POST /api/v1/tracking/:busId/start
func (h *TrackingHandler) StartTracking(c *gin.Context) {
	busID, ok := h.busID(c)
	if !ok {
		return
	}

	h.tracking.Start(busID)
	c.JSON(http.StatusOK, gin.H{
		"bus_id":   busID,
		"tracking": true,
	})
}

// StopTracking ends polling for the bus
// POST /api/v1/tracking/:busId/stop
func (h *TrackingHandler) StopTracking(c *gin.Context) {
	busID, ok := h.busID(c)
	if !ok {
		return
	}

	h.tracking.Stop(busID)
	c.JSON(http.StatusOK, gin.H{
		"bus_id":   busID,
		"tracking": false,
	})
}

// GetLocation returns the latest known position for the bus
// GET /api/v1/tracking/:busId/location
func (h *TrackingHandler) GetLocation(c *gin.Context) {
	busID, ok := h.busID(c)
	if !ok {
		return
	}

	sample, err := h.tracking.Latest(c.Request.Context(), busID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "No location available for this bus"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": gin.H{
			"lat": sample.Latitude,
			"lon": sample.Longitude,
		},
		"observed_at": sample.ObservedAt,
		"tracking":    h.tracking.Tracking(busID),
	})
}

func (h *TrackingHandler) busID(c *gin.Context) (int64, bool) {
	busID, err := strconv.ParseInt(c.Param("busId"), 10, 64)
	if err != nil || busID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus id"})
		return 0, false
	}
	return busID, true
}
