package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// NotificationClient proxies the notification service. The delete path shape
// (notificationId= as a path segment) is what that service actually serves.
type NotificationClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewNotificationClient creates a notification service client
func NewNotificationClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *NotificationClient {
	return &NotificationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// List fetches all notifications originated by senderID.
func (c *NotificationClient) List(ctx context.Context, senderID int64) ([]models.Notification, error) {
	url := fmt.Sprintf("%s/api/v1/notifications/list?senderId=%d", c.baseURL, senderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var notifications []models.Notification
	if err := json.Unmarshal(body, &notifications); err != nil {
		return nil, fmt.Errorf("failed to parse notifications: %w", err)
	}
	return notifications, nil
}

// Send creates one notification and returns the created record.
func (c *NotificationClient) Send(ctx context.Context, request models.SendNotificationRequest) (*models.Notification, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notifications/send", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var notification models.Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("failed to parse notification: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"receiver_id":     request.ReceiverID,
		"type":            request.Type,
	}).Info("Notification sent")

	return &notification, nil
}

// Delete removes one notification by id.
func (c *NotificationClient) Delete(ctx context.Context, notificationID int64) error {
	url := fmt.Sprintf("%s/api/v1/notifications/delete/notificationId=%d", c.baseURL, notificationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if _, err := c.do(req); err != nil {
		return err
	}
	return nil
}

func (c *NotificationClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notification service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("notification service returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
