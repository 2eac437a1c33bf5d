package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the reservation gateway
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration (reservation store + checkout audits)
	Database DatabaseConfig

	// Upstream collaborator services
	Services ServicesConfig

	// Session token configuration
	Session SessionConfig

	// Checkout defaults
	Checkout CheckoutConfig

	// Background job configuration
	Jobs JobsConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// ServicesConfig holds base URLs for the backend services this gateway
// consumes. Defaults match the hosts the web client was wired against.
type ServicesConfig struct {
	TripBaseURL         string // trip search, bus stops, trip details
	TicketBaseURL       string // ticket creation
	PaymentBaseURL      string // payment capture
	LocationBaseURL     string // live bus location
	NotificationBaseURL string // notification list/send/delete
	ClientTimeout       time.Duration
}

// SessionConfig holds anonymous session token configuration
type SessionConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// CheckoutConfig holds defaults applied when the caller omits them
type CheckoutConfig struct {
	DefaultPassengerID int64
	DefaultSeatNumber  int
}

// JobsConfig holds cron schedules and the reservation-set retention window
type JobsConfig struct {
	StopRefreshSpec string        // cron spec for bus-stop cache refresh
	PruneSpec       string        // cron spec for stale reservation pruning
	ReservationTTL  time.Duration // idle age after which a set is pruned
	TrackingPoll    time.Duration // live-location poll interval
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8085"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Services: ServicesConfig{
			TripBaseURL:         getEnv("TRIP_SERVICE_URL", "http://localhost:8080"),
			TicketBaseURL:       getEnv("TICKET_SERVICE_URL", "http://localhost:8080"),
			PaymentBaseURL:      getEnv("PAYMENT_SERVICE_URL", "http://localhost:3400"),
			LocationBaseURL:     getEnv("LOCATION_SERVICE_URL", "http://localhost:3400"),
			NotificationBaseURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:8086"),
			ClientTimeout:       time.Duration(getEnvAsInt("SERVICE_CLIENT_TIMEOUT", 30)) * time.Second,
		},
		Session: SessionConfig{
			Secret:      getEnv("SESSION_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("SESSION_TOKEN_EXPIRY", 2592000)) * time.Second,
		},
		Checkout: CheckoutConfig{
			DefaultPassengerID: int64(getEnvAsInt("CHECKOUT_DEFAULT_PASSENGER_ID", 101)),
			DefaultSeatNumber:  getEnvAsInt("CHECKOUT_DEFAULT_SEAT_NUMBER", 15),
		},
		Jobs: JobsConfig{
			StopRefreshSpec: getEnv("JOB_STOP_REFRESH_SPEC", "0 */15 * * * *"),
			PruneSpec:       getEnv("JOB_PRUNE_SPEC", "0 0 3 * * *"),
			ReservationTTL:  time.Duration(getEnvAsInt("RESERVATION_TTL_DAYS", 30)) * 24 * time.Hour,
			TrackingPoll:    time.Duration(getEnvAsInt("TRACKING_POLL_MS", 1000)) * time.Millisecond,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Session-Token"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if c.Services.TripBaseURL == "" {
		return fmt.Errorf("TRIP_SERVICE_URL is required")
	}

	if c.Services.PaymentBaseURL == "" {
		return fmt.Errorf("PAYMENT_SERVICE_URL is required")
	}

	if c.Jobs.TrackingPoll <= 0 {
		return fmt.Errorf("TRACKING_POLL_MS must be positive")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
