package models

import (
	"time"
)

// BusStop is reference data owned by the trip service; immutable once loaded.
type BusStop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Route connects two bus stops.
type Route struct {
	ID          int64   `json:"id"`
	Source      BusStop `json:"source"`
	Destination BusStop `json:"destination"`
	DistanceKm  float64 `json:"distance"`
	DurationMin int     `json:"duration"`
}

// Bus describes a vehicle operating trips.
type Bus struct {
	ID          int64  `json:"id"`
	PlateNumber string `json:"plateNumber"`
	Capacity    int    `json:"capacity"`
}

// Trip is one scheduled departure on a route. Created and mutated by the
// scheduling backend; this service only reads it.
type Trip struct {
	ID            int64     `json:"id"`
	Bus           Bus       `json:"bus"`
	Route         Route     `json:"route"`
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	Price         float64   `json:"price"`
	Active        bool      `json:"status"`
	// SeatNumber is optionally pre-assigned by the trip service.
	SeatNumber *int `json:"seatNumber,omitempty"`
}

// TripRef is the nested trip reference the ticket service expects.
type TripRef struct {
	ID int64 `json:"id"`
}

// TicketRequest is the payload for ticket creation on the booking backend.
type TicketRequest struct {
	PassengerID int64   `json:"passengerId"`
	Trip        TripRef `json:"trip"`
	SeatNumber  int     `json:"seatNumber"`
	Status      bool    `json:"status"`
}

// Ticket binds a passenger to a trip and seat. Owned by the booking backend;
// referenced here by id only.
type Ticket struct {
	ID          int64 `json:"id"`
	PassengerID int64 `json:"passengerId,omitempty"`
	TripID      int64 `json:"tripId,omitempty"`
	SeatNumber  int   `json:"seatNumber,omitempty"`
	Status      bool  `json:"status"`
}

// TripSearchQuery holds the three required search parameters.
type TripSearchQuery struct {
	SourceID      int64  `form:"sourceId" json:"sourceId"`
	DestinationID int64  `form:"destinationId" json:"destinationId"`
	Date          string `form:"date" json:"date"`
}

// Validate checks the query before any upstream call is issued.
func (q *TripSearchQuery) Validate() error {
	if q.SourceID == 0 {
		return ErrInvalidInput("sourceId is required")
	}
	if q.DestinationID == 0 {
		return ErrInvalidInput("destinationId is required")
	}
	if q.Date == "" {
		return ErrInvalidInput("date is required")
	}
	if q.SourceID == q.DestinationID {
		return ErrInvalidInput("source and destination cannot be the same")
	}
	if _, err := time.Parse("2006-01-02", q.Date); err != nil {
		return ErrInvalidInput("date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// LocationSample is one live-location reading for a bus.
type LocationSample struct {
	BusID      int64     `json:"bus_id"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	ObservedAt time.Time `json:"observed_at"`
}

// Notification is a record owned by the notification service.
type Notification struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Status     bool   `json:"status"`
}

// SendNotificationRequest is the payload accepted by the notification service.
type SendNotificationRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required"`
	SenderID   int64  `json:"senderId"`
	Type       string `json:"type" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
