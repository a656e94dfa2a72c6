// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/Thejus-u/charity-forum/docs" // swagger docs
	"github.com/Thejus-u/charity-forum/internal/cache"
	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/database"
	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/scheduler"
	"github.com/Thejus-u/charity-forum/internal/service"

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

const (
	serviceName    = "charity-forum-api"
	defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
)

var (
	promOnce sync.Once
	promHTTP *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide HTTP instrumentation. The collectors
// live in the default registry, so they are created once.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promHTTP = middleware.InitMetrics(serviceName)
	})
	return promHTTP
}

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *gorm.DB
	redis              *redis.Client
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	auth               *middleware.Authenticator
	jobs               *scheduler.Manager
	userRepo           repository.UserRepository
	campaignRepo       repository.CampaignRepository
	forumRepo          repository.ForumRepository
	testimonialRepo    repository.TestimonialRepository
	userService        *service.UserService
	campaignService    *service.CampaignService
	forumService       *service.ForumService
	testimonialService *service.TestimonialService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limits and token revocation are then
// skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	s := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  httpMetrics(),
		userRepo:        repository.NewUserRepository(db),
		campaignRepo:    repository.NewCampaignRepository(db),
		forumRepo:       repository.NewForumRepository(db),
		testimonialRepo: repository.NewTestimonialRepository(db),
	}

	s.auth = middleware.NewAuthenticator(cfg, s.userRepo, redisClient)
	s.campaignService = service.NewCampaignService(s.campaignRepo, s.userRepo)
	s.userService = service.NewUserService(s.userRepo, s.auth).WithProfileCaches(s.campaignService)
	s.forumService = service.NewForumService(s.forumRepo, s.userRepo, s.campaignRepo)
	s.testimonialService = service.NewTestimonialService(s.testimonialRepo)

	return s, nil
}

// DB returns the server's database handle for bootstrap code.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request and user ids into the request context for logging.
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so error responses still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Charity Forum Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.auth.Required(), s.Logout)
	auth.Get("/me", s.auth.Required(), s.GetMe)
	auth.Put("/profile", s.auth.Required(), s.UpdateProfile)
	auth.Put("/password", s.auth.Required(), middleware.RateLimit(
		s.redis, 5, 15*time.Minute, "change_password"), s.ChangePassword)

	// User routes
	users := api.Group("/users")
	users.Put("/:id/role", s.auth.RequireAdmin(), s.SetUserRole)
	users.Get("/:id", s.auth.Optional(), s.GetUserProfile)

	// Campaign routes answer under every name the clients have used.
	for _, prefix := range []string{"/campaigns", "/donations", "/causes"} {
		s.setupCampaignRoutes(api.Group(prefix))
	}

	// Forum routes
	forum := api.Group("/forum")
	forum.Get("/categories", s.GetForumCategories)
	forum.Get("/", s.auth.Optional(), s.ListPosts)
	forum.Post("/", s.auth.Required(), middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	forum.Post("/:id/like", s.auth.Required(), s.LikePost)
	forum.Post("/:id/dislike", s.auth.Required(), s.DislikePost)
	forum.Patch("/:id/moderation", s.auth.RequireModerator(), s.ModeratePost)
	forum.Post("/:id/comments", s.auth.Required(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.AddComment)
	forum.Put("/:id/comments/:commentId", s.auth.Required(), s.EditComment)
	forum.Delete("/:id/comments/:commentId", s.auth.Required(), s.DeleteComment)
	forum.Get("/:id", s.auth.Optional(), s.GetPost)
	forum.Put("/:id", s.auth.Required(), s.UpdatePost)
	forum.Delete("/:id", s.auth.Required(), s.DeletePost)

	// Testimonial routes
	testimonials := api.Group("/testimonials")
	testimonials.Get("/", s.ListTestimonials)
	testimonials.Post("/", s.auth.Required(), middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "create_testimonial"), s.CreateTestimonial)
}

func (s *Server) setupCampaignRoutes(campaigns fiber.Router) {
	campaigns.Get("/categories", s.GetCampaignCategories)
	campaigns.Get("/", s.auth.Optional(), s.ListCampaigns)
	campaigns.Post("/", s.auth.Required(), middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_campaign"), s.CreateCampaign)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	campaigns.Post("/:id/donate", s.auth.Required(), middleware.RateLimit(
		s.redis, 20, time.Minute, "donate"), s.Donate)
	campaigns.Post("/:id/updates", s.auth.Required(), s.AddCampaignUpdate)
	campaigns.Patch("/:id/status", s.auth.Required(), s.SetCampaignStatus)
	campaigns.Get("/:id", s.auth.Optional(), s.GetCampaign)
	campaigns.Put("/:id", s.auth.Required(), s.UpdateCampaign)
	campaigns.Delete("/:id", s.auth.Required(), s.DeleteCampaign)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// errorHandler renders errors that escape a handler. Fiber's own errors (404
// for unknown routes, 405, oversized bodies) keep their status.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusUnauthorized:
			code = models.CodeUnauthenticated
		case fiber.StatusForbidden:
			code = models.CodeForbidden
		default:
			if fe.Code < fiber.StatusInternalServerError {
				code = models.CodeValidation
			}
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message, Code: code})
	}

	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Charity Forum API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the expiry sweep when enabled and then serves HTTP.
func (s *Server) Start() error {
	s.app = s.NewApp()

	if s.config.ExpirySweepEnabled {
		jobs, err := scheduler.NewManager()
		if err != nil {
			return err
		}
		if err := jobs.RegisterExpirySweep(s.campaignService, s.config.ExpirySweepInterval); err != nil {
			return err
		}
		jobs.Start()
		s.jobs = jobs
		middleware.Logger.Info("Campaign expiry sweep enabled",
			slog.Duration("interval", s.config.ExpirySweepInterval))
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.jobs != nil {
		if err := s.jobs.Stop(); err != nil {
			middleware.Logger.Error("error stopping scheduler", slog.String("error", err.Error()))
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
