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
	"github.com/levelpap/training-backend/internal/config"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/handlers"
	"github.com/levelpap/training-backend/internal/middleware"
	"github.com/levelpap/training-backend/internal/services"
	"github.com/levelpap/training-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
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

	logger.Info("Starting LevelPap Training Backend")
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

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	userSessionRepo := database.NewUserSessionRepository(db)
	courseRepo := database.NewCourseRepository(db)
	trainerRepo := database.NewTrainerRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	webhookRepo := database.NewWebhookEventRepository(db)
	corporateRepo := database.NewCorporateRequestRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	mpesaService := services.NewMpesaService(&cfg.Mpesa, logger)
	if mpesaService.IsConfigured() {
		logger.Infof("M-Pesa gateway configured (%s)", cfg.Mpesa.Environment)
	} else {
		logger.Warn("M-Pesa gateway not configured, STK push initiation will fail")
	}
	flutterwaveService := services.NewFlutterwaveService(&cfg.Flutterwave, logger)
	if flutterwaveService.IsConfigured() {
		logger.Info("Flutterwave gateway configured")
	} else {
		logger.Warn("Flutterwave gateway not configured, payment link initiation will fail")
	}

	authService := services.NewAuthService(userRepo, userSessionRepo, jwtService, cfg.JWT.AccessTokenExpiry, cfg.Security.BcryptCost, logger)
	courseService := services.NewCourseService(courseRepo, logger)
	trainerService := services.NewTrainerService(trainerRepo, logger)
	sessionService := services.NewSessionService(sessionRepo, courseRepo, trainerRepo, logger)
	capacityService := services.NewCapacityService(sessionRepo, bookingRepo)
	bookingService := services.NewBookingService(bookingRepo, sessionRepo, courseRepo, logger)
	paymentService := services.NewPaymentService(paymentRepo, bookingRepo, mpesaService, flutterwaveService, logger)
	webhookService := services.NewWebhookService(webhookRepo, paymentRepo, bookingRepo, mpesaService, flutterwaveService, logger)
	corporateService := services.NewCorporateService(corporateRepo, logger)

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger)
	trainerHandler := handlers.NewTrainerHandler(trainerService, logger)
	sessionHandler := handlers.NewSessionHandler(sessionService, capacityService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, webhookService, logger)
	corporateHandler := handlers.NewCorporateHandler(corporateService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/verify-email", authHandler.VerifyEmail)

			// Protected routes (require JWT authentication)
			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/me", authHandler.Me)
				protected.PATCH("/me", authHandler.UpdateProfile)
			}
		}

		// Course catalog (public reads)
		courses := v1.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:id", courseHandler.Get)
		}

		// Trainer profiles (public reads)
		trainers := v1.Group("/trainers")
		{
			trainers.GET("", trainerHandler.List)
			trainers.GET("/:id", trainerHandler.Get)
		}

		// Session schedule and availability (public reads)
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionHandler.List)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.GET("/:id/availability", sessionHandler.GetAvailability)
		}

		// Booking routes (all protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.GET("/:id/payment", paymentHandler.GetForBooking)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			// Provider webhooks (authenticated by shared secret / signature, not JWT)
			payments.POST("/webhooks/mpesa", paymentHandler.MpesaWebhook)
			payments.POST("/webhooks/flutterwave", paymentHandler.FlutterwaveWebhook)

			// Protected routes (require JWT authentication)
			paymentsProtected := payments.Group("")
			paymentsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				paymentsProtected.POST("/mpesa/initiate", paymentHandler.InitiateMpesa)
				paymentsProtected.POST("/flutterwave/initiate", paymentHandler.InitiateFlutterwave)
				paymentsProtected.GET("/status", paymentHandler.GetStatus)
			}
		}

		// Corporate training inquiries (public intake)
		corporate := v1.Group("/corporate")
		{
			corporate.POST("/requests", corporateHandler.Submit)
		}

		// Admin routes (all require the admin role)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/users", authHandler.ListUsers)

			admin.POST("/courses", courseHandler.Create)
			admin.PATCH("/courses/:id", courseHandler.Update)
			admin.DELETE("/courses/:id", courseHandler.Deactivate)

			admin.POST("/trainers", trainerHandler.Create)
			admin.PATCH("/trainers/:id", trainerHandler.Update)
			admin.DELETE("/trainers/:id", trainerHandler.Deactivate)

			admin.POST("/sessions", sessionHandler.Create)
			admin.PATCH("/sessions/:id", sessionHandler.Update)
			admin.PATCH("/sessions/:id/status", sessionHandler.UpdateStatus)
			admin.GET("/sessions/:id/bookings", bookingHandler.ListForSession)

			admin.GET("/corporate/requests", corporateHandler.List)
			admin.GET("/corporate/requests/:id", corporateHandler.Get)
			admin.POST("/corporate/requests/:id/respond", corporateHandler.Respond)
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

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if user, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = user.UserID
			fields["role"] = user.Role
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
