// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "rentloop/docs" // swagger docs
	"rentloop/internal/assets"
	"rentloop/internal/cache"
	"rentloop/internal/config"
	"rentloop/internal/database"
	"rentloop/internal/featureflags"
	"rentloop/internal/middleware"
	"rentloop/internal/models"
	"rentloop/internal/notifications"
	"rentloop/internal/repository"
	"rentloop/internal/service"
	"rentloop/internal/tokens"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo   repository.UserRepository
	actionRepo repository.AdminActionRepository

	assetStore   assets.Store
	tokens       *tokens.Service
	notifier     *notifications.Notifier
	feedHub      *notifications.FeedHub
	featureFlags *featureflags.Manager

	userService         *service.UserService
	adminService        *service.AdminService
	verificationService *service.VerificationService
	productService      *service.ProductService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// performs explicit schema setup and seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	prom := middleware.InitMetrics("rentloop-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       repository.NewUserRepository(db),
		actionRepo:     repository.NewAdminActionRepository(db),
		assetStore:     assets.NewDiskStore(cfg),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.tokens = tokens.NewService(cfg, redisClient)
	server.notifier = notifications.NewNotifier(redisClient)
	server.feedHub = notifications.NewFeedHub()

	server.userService = service.NewUserService(server.userRepo, server.tokens)
	server.adminService = service.NewAdminService(db, server.tokens, server.assetStore, server.notifier)
	server.verificationService = service.NewVerificationService(db, server.assetStore, server.notifier)
	server.productService = service.NewProductService(db, server.assetStore, server.notifier)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate request ID and principal identity
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Distributed tracing
	app.Use(middleware.TracingMiddleware())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Rentloop Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Stored verification documents and product photos
	if disk, ok := s.assetStore.(*assets.DiskStore); ok {
		app.Static("/assets", disk.Root())
	}

	// User auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired, s.UserPrincipal(), s.Logout)
	auth.Post("/logout-all", middleware.AuthRequired, s.UserPrincipal(), s.LogoutAll)

	// Admin auth routes
	adminAuth := api.Group("/admin/auth")
	adminAuth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "admin_register"), s.AdminRegister)
	adminAuth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "admin_login"), s.AdminLogin)
	adminAuth.Post("/logout", middleware.AuthRequired, s.AdminPrincipal(), s.AdminLogout)
	adminAuth.Post("/logout-all", middleware.AuthRequired, s.AdminPrincipal(), s.AdminLogoutAll)
	adminAuth.Get("/me", middleware.AuthRequired, s.AdminPrincipal(), s.GetMyAdminProfile)

	// Public product catalog
	products := api.Group("/products")
	products.Get("/", s.BrowseProducts)
	products.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchProducts)
	products.Get("/categories/:category", s.BrowseCategory)
	products.Get("/:id", middleware.AuthOptional, s.GetProduct)

	// Authenticated user routes
	users := api.Group("/users", middleware.AuthRequired, s.UserPrincipal())
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/avatar", s.UploadAvatar)
	users.Get("/me/products", s.GetMyProducts)

	// Identity verification
	verification := api.Group("/verification", middleware.AuthRequired, s.UserPrincipal())
	verification.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "verification_submit"), s.SubmitVerification)
	verification.Post("/resubmit", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "verification_submit"), s.ResubmitVerification)
	verification.Get("/status", s.GetVerificationStatus)
	verification.Get("/requirements", s.GetVerificationRequirements)

	// Seller product management
	manage := api.Group("/products", middleware.AuthRequired, s.UserPrincipal())
	manage.Post("/", s.CreateProduct)
	manage.Post("/images", s.UploadProductImage)
	manage.Put("/:id", s.UpdateProduct)
	manage.Patch("/:id/status", s.UpdateProductStatus)
	manage.Delete("/:id", s.DeleteProduct)

	// Admin event feed over WebSocket. Registered before the admin group so
	// the query-token handshake is not shadowed by header-based auth.
	api.Get("/admin/events", middleware.WebSocketAuthRequired, s.AdminPrincipal(), s.AdminEventFeedHandler())

	// Admin moderation routes
	admin := api.Group("/admin", middleware.AuthRequired, s.AdminPrincipal())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/users", s.GetAllUsers)
	admin.Put("/users/:id", s.AdminUpdateUser)
	admin.Get("/actions", s.GetAdminActions)
	admin.Get("/statistics", s.GetStatistics)

	adminVerifications := admin.Group("/verifications")
	adminVerifications.Get("/pending", s.GetPendingVerifications)
	adminVerifications.Get("/", s.GetAllVerifications)
	adminVerifications.Post("/:id/review", s.ReviewVerification)

	adminProducts := admin.Group("/products")
	adminProducts.Get("/pending", s.GetPendingProducts)
	adminProducts.Post("/:id/review", s.ReviewProduct)

	// Admin lifecycle routes (super admin only)
	adminAccounts := api.Group("/admin/admins", s.SuperAdminPrincipal())
	adminAccounts.Get("/", s.GetAdmins)
	adminAccounts.Post("/:id/approve", s.ApproveAdmin)
	adminAccounts.Post("/:id/reject", s.RejectAdmin)
	adminAccounts.Post("/:id/ban", s.BanAdmin)
	adminAccounts.Post("/:id/unban", s.UnbanAdmin)
	adminAccounts.Delete("/:id", s.DeleteAdmin)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Token revocation and the event feed need Redis; readiness degrades
		// without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Rentloop API",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "Rentloop API",
		BodyLimit: 25 * 1024 * 1024, // multipart document uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the admin event feed to Redis pub/sub if available
	if s.redis != nil {
		go func() {
			if err := s.feedHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start event feed wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the feed wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.feedHub != nil {
		if err := s.feedHub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down event feed: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
