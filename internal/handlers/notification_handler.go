package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/reservation-gateway/internal/clients"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

type NotificationHandler struct {
	notifications *clients.NotificationClient
}

func NewNotificationHandler(notifications *clients.NotificationClient) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications proxies the notification list for a sender
// GET /api/v1/notifications?senderId=
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	senderID, err := strconv.ParseInt(c.Query("senderId"), 10, 64)
	if err != nil || senderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "senderId is required"})
		return
	}

	notifications, err := h.notifications.List(c.Request.Context(), senderID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// SendNotification proxies a notification send
// POST /api/v1/notifications
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var request models.SendNotificationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId, type and message are required"})
		return
	}

	notification, err := h.notifications.Send(c.Request.Context(), request)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send notification"})
		return
	}

	c.JSON(http.StatusCreated, notification)
}

// DeleteNotification proxies a notification delete
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || notificationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), notificationID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": notificationID})
}
