package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/clients"
	"github.com/smarttransit/reservation-gateway/internal/config"
	"github.com/smarttransit/reservation-gateway/internal/database"
	"github.com/smarttransit/reservation-gateway/internal/handlers"
	"github.com/smarttransit/reservation-gateway/internal/middleware"
	"github.com/smarttransit/reservation-gateway/internal/services"
	"github.com/smarttransit/reservation-gateway/internal/utils"
	"github.com/smarttransit/reservation-gateway/pkg/session"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Reservation Gateway")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize upstream clients
	timeout := cfg.Services.ClientTimeout
	tripClient := clients.NewTripClient(cfg.Services.TripBaseURL, timeout, logger)
	ticketClient := clients.NewTicketClient(cfg.Services.TicketBaseURL, timeout, logger)
	paymentClient := clients.NewPaymentClient(cfg.Services.PaymentBaseURL, timeout, logger)
	locationClient := clients.NewLocationClient(cfg.Services.LocationBaseURL, timeout, logger)
	notificationClient := clients.NewNotificationClient(cfg.Services.NotificationBaseURL, timeout, logger)

	// Initialize stores and services
	logger.Info("Initializing services...")
	sessionService := session.NewService(cfg.Session.Secret, cfg.Session.TokenExpiry)
	reservationStore := database.NewPostgresReservationStore(db)
	auditRepository := database.NewCheckoutAuditRepository(db)

	reservationService := services.NewReservationService(tripClient, reservationStore, logger)
	checkoutService := services.NewCheckoutService(
		tripClient,
		ticketClient,
		paymentClient,
		reservationStore,
		auditRepository,
		cfg.Checkout,
		logger,
	)
	receiptService := services.NewReceiptService(logger)
	trackingService := services.NewTrackingService(locationClient, cfg.Jobs.TrackingPoll, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(reservationService, reservationStore, cfg.Jobs, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	reservationHandler := handlers.NewReservationHandler(reservationService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, receiptService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	notificationHandler := handlers.NewNotificationHandler(notificationClient)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.SessionTokenHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes, all behind the anonymous session middleware
	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionMiddleware(sessionService, logger))
	{
		v1.GET("/bus-stops", reservationHandler.GetBusStops)
		v1.GET("/trips/search", reservationHandler.SearchTrips)

		reservations := v1.Group("/reservations")
		{
			reservations.GET("", reservationHandler.GetReservations)
			reservations.POST("/:tripId/toggle", reservationHandler.ToggleReservation)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.GET("/quote", checkoutHandler.GetQuote)
			checkout.POST("", checkoutHandler.SubmitCheckout)
		}

		checkouts := v1.Group("/checkouts")
		{
			checkouts.GET("", checkoutHandler.ListCheckouts)
			checkouts.GET("/:id", checkoutHandler.GetCheckout)
			checkouts.GET("/:id/receipt", checkoutHandler.GetReceipt)
		}

		tracking := v1.Group("/tracking")
		{
			tracking.POST("/:busId/start", trackingHandler.StartTracking)
			tracking.POST("/:busId/stop", trackingHandler.StopTracking)
			tracking.GET("/:busId/location", trackingHandler.GetLocation)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("", notificationHandler.SendNotification)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}

		// Admin cron management routes
		admin := v1.Group("/admin")
		{
			admin.POST("/cron/refresh-stops", func(c *gin.Context) {
				cronService.RunRefreshStopsNow()
				c.JSON(200, gin.H{"message": "Stop refresh triggered"})
			})
			admin.POST("/cron/prune-reservations", func(c *gin.Context) {
				cronService.RunPruneNow()
				c.JSON(200, gin.H{"message": "Reservation pruning triggered"})
			})
			admin.GET("/cron/status", func(c *gin.Context) {
				c.JSON(200, cronService.JobStatus())
			})
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop background work before closing the listener
	cronService.Stop()
	trackingService.StopAll()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		device := utils.ParseUserAgent(c.Request.UserAgent())

		fields := logrus.Fields{
			"status":      c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        path,
			"query":       query,
			"ip":          c.ClientIP(),
			"latency_ms":  latency.Milliseconds(),
			"device_type": device.DeviceType,
			"browser":     device.Browser,
			"os":          device.OS,
		}

		if sessionID, exists := c.Get(middleware.SessionContextKey); exists {
			fields["session_id"] = sessionID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
