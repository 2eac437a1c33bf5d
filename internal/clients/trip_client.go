package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// TripClient talks to the trip/booking service for reference data and search.
type TripClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewTripClient creates a trip service client
func NewTripClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *TripClient {
	return &TripClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BusStops fetches the full bus-stop list.
func (c *TripClient) BusStops(ctx context.Context) ([]models.BusStop, error) {
	var stops []models.BusStop
	if err := c.getJSON(ctx, c.baseURL+"/api/busStops/", &stops); err != nil {
		return nil, fmt.Errorf("failed to fetch bus stops: %w", err)
	}
	return stops, nil
}

// SearchTrips issues one search with the three required parameters. Results
// are returned in upstream order; no ranking is applied here.
func (c *TripClient) SearchTrips(ctx context.Context, query models.TripSearchQuery) ([]models.Trip, error) {
	params := url.Values{}
	params.Set("sourceId", strconv.FormatInt(query.SourceID, 10))
	params.Set("destinationId", strconv.FormatInt(query.DestinationID, 10))
	params.Set("departureTime", query.Date)

	c.logger.WithFields(logrus.Fields{
		"source_id":      query.SourceID,
		"destination_id": query.DestinationID,
		"date":           query.Date,
	}).Debug("Searching trips")

	var trips []models.Trip
	if err := c.getJSON(ctx, c.baseURL+"/api/trips/search?"+params.Encode(), &trips); err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	return trips, nil
}

// TripsByIDs fetches full trip records for the given ids (comma-joined, as
// the trip service expects).
func (c *TripClient) TripsByIDs(ctx context.Context, ids []int64) ([]models.Trip, error) {
	if len(ids) == 0 {
		return []models.Trip{}, nil
	}

	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("ids", strings.Join(joined, ","))

	var trips []models.Trip
	if err := c.getJSON(ctx, c.baseURL+"/api/trips?"+params.Encode(), &trips); err != nil {
		return nil, fmt.Errorf("failed to fetch trips by id: %w", err)
	}
	return trips, nil
}

func (c *TripClient) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("trip service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trip service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
