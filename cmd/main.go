package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/sirupsen/logrus"

	"delivery-service/internal/config"
	"delivery-service/internal/events"
	"delivery-service/internal/handlers"
	"delivery-service/internal/middleware"
	"delivery-service/internal/models"
	"delivery-service/internal/repository"
	"delivery-service/internal/services"
)

func main() {
	log.Println("Starting Delivery Service...")

	// Load .env in local development; ignore when absent
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded successfully")

	// Connect to database
	db, err := connectDatabase(cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connected successfully")

	// Run migrations
	if err := runMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to parse Redis URL: %v", err)
			log.Println("Continuing without Redis caching...")
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Failed to connect to Redis: %v", err)
				log.Println("Continuing without Redis caching...")
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis for caching")
			}
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	// Initialize NATS events publisher
	eventLogger := logrus.New()
	eventLogger.SetFormatter(&logrus.JSONFormatter{})
	eventLogger.SetLevel(logrus.InfoLevel)

	eventsPublisher, err := events.NewPublisher(eventLogger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		eventsPublisher = nil
	} else {
		defer eventsPublisher.Close()
		log.Println("✓ NATS events publisher initialized")
	}

	// Initialize repository, validator and service
	areaRepo := repository.NewServiceAreaRepository(db, redisClient, cfg.CacheTTL)
	validator := services.NewAreaValidator(areaRepo)
	areaService := services.NewServiceAreaService(areaRepo, validator, eventsPublisher)
	log.Println("Service area engine initialized")

	// Initialize handler
	deliveryHandler := handlers.NewDeliveryHandler(areaService, cfg.Server.Env)

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMw := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Setup router
	router := setupRouter(deliveryHandler, cfg, rbacMw, redisClient)
	log.Printf("Router configured")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Starting server on %s (environment: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database
func connectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ServiceArea{},
	)
}

// setupRouter configures the Gin router with routes and middleware
func setupRouter(deliveryHandler *handlers.DeliveryHandler, cfg *config.Config, rbacMw *rbac.Middleware, redisClient *redis.Client) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())

	// Security headers middleware
	router.Use(gosharedmw.SecurityHeaders())

	// Rate limiting middleware (uses Redis for distributed rate limiting)
	if redisClient != nil {
		router.Use(gosharedmw.RedisRateLimitMiddlewareWithProfile(redisClient, "standard"))
		log.Println("✓ Redis-based rate limiting enabled")
	} else {
		router.Use(gosharedmw.RateLimit())
		log.Println("✓ In-memory rate limiting enabled (Redis unavailable)")
	}

	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS())

	// IstioAuth middleware - extracts JWT claims from x-jwt-claim-* headers.
	// Must come before TenantMiddleware and RBAC middleware.
	router.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        false, // Validation endpoints serve unauthenticated checkout flows
		AllowLegacyHeaders: true,
		SkipPaths: []string{
			"/health",
		},
	}))

	router.Use(middleware.TenantMiddleware())
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", deliveryHandler.HealthCheck)

	// API routes
	api := router.Group("/api/delivery")
	{
		// Booking-facing validation - public, consumed by checkout
		api.POST("/validate", deliveryHandler.ValidateDelivery)
		api.POST("/validate-bulk", deliveryHandler.BulkValidate)
		api.GET("/postal/:code", deliveryHandler.PostalCodeLookup)

		// Read operations (require shipping:read permission)
		api.GET("/areas", rbacMw.RequirePermission(rbac.PermissionShippingRead), deliveryHandler.ListAreas)
		api.GET("/stats", rbacMw.RequirePermission(rbac.PermissionShippingRead), deliveryHandler.Stats)

		// Write operations
		api.POST("/areas", rbacMw.RequirePermission(rbac.PermissionShippingCreate), deliveryHandler.CreateArea)
		api.PUT("/areas/:id/status", rbacMw.RequirePermission(rbac.PermissionShippingUpdate), deliveryHandler.UpdateAreaStatus)
		api.POST("/areas/:id/postal-codes", rbacMw.RequirePermission(rbac.PermissionShippingUpdate), deliveryHandler.AddPostalCodes)
		api.DELETE("/areas/:id/postal-codes", rbacMw.RequirePermission(rbac.PermissionShippingUpdate), deliveryHandler.RemovePostalCodes)
		api.PUT("/areas/:id/service-config", rbacMw.RequirePermission(rbac.PermissionShippingUpdate), deliveryHandler.UpdateServiceConfig)

		// Admin operations (require shipping:manage permission)
		api.POST("/setup-mvp", rbacMw.RequirePermission(rbac.PermissionShippingManage), deliveryHandler.SetupMVP)
	}

	return router
}
