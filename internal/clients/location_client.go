package clients

import (
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

// LocationClient reads live bus positions from the location service.
type LocationClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewLocationClient creates a location service client
func NewLocationClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *LocationClient {
	return &LocationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type locationEnvelope struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

// BusLocation fetches the latest known position for one bus.
func (c *LocationClient) BusLocation(ctx context.Context, busID int64) (*models.LocationSample, error) {
	url := fmt.Sprintf("%s/api/v1/bus/location/%d", c.baseURL, busID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("location service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("location service returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope locationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse location response: %w", err)
	}

	return &models.LocationSample{
		BusID:      busID,
		Latitude:   envelope.Location.Lat,
		Longitude:  envelope.Location.Lon,
		ObservedAt: time.Now(),
	}, nil
}
