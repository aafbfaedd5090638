// Package server contains the HTTP and WebSocket handlers of the blog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "blog/docs" // swagger docs
	"blog/internal/auth"
	"blog/internal/bootstrap"
	"blog/internal/cache"
	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/imaging"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/notifications"
	"blog/internal/repository"
	"blog/internal/service"
	"blog/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
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

	files       *storage.FileStore
	tokens      *auth.TokenService
	revocations *auth.RevocationStore
	authorizer  *auth.Authorizer
	limiter     *middleware.RateLimiter
	notifier    *notifications.Notifier
	hub         *notifications.Hub

	articleService *service.ArticleService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer connects to the database and Redis and builds the server.
// Redis is optional: without it caching, revocation, rate limits and
// event relay are disabled.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := bootstrap.EnsureDevAdmin(context.Background(), cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	files := storage.NewOSFileStore(cfg.UploadDir)
	if err := files.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("upload directories: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.Connect(cfg.RedisURL), files)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, files *storage.FileStore) (*Server, error) {
	store := cache.NewStore(redisClient, cfg.CacheTTL)

	userRepo := repository.NewUserRepository(db, store)
	articleRepo := repository.NewArticleRepository(db, store)
	commentRepo := repository.NewCommentRepository(db, store)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blog-api"),
		files:          files,
		tokens:         auth.NewTokenService(cfg),
		revocations:    auth.NewRevocationStore(redisClient),
		authorizer:     auth.NewAuthorizer(auth.DefaultRules),
		limiter:        middleware.NewRateLimiter(redisClient, rateLimitsEnabled(cfg.Env)),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.articleService = service.NewArticleService(articleRepo, userRepo, files, imaging.NewPreviewer(files), s.notifier)
	s.commentService = service.NewCommentService(commentRepo, articleRepo, userRepo, s.notifier)
	s.userService = service.NewUserService(userRepo, auth.NewBcryptHasher(), s.tokens, s.revocations, files)

	return s, nil
}

func rateLimitsEnabled(env string) bool {
	switch env {
	case "", "development", "test", "stress":
		return false
	}
	return true
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are embedded by front ends on other origins.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:1234,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(middleware.Authenticate(s.tokens, s.revocations))
	app.Use(middleware.Authorize(s.authorizer))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Blog API Metrics"}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	articles := app.Group("/articles")
	articles.Get("/", s.ListArticles)
	articles.Post("/", s.CreateArticle)
	articles.Get("/:id/comments", s.ListComments)
	articles.Post("/:id/comments", s.CreateComment)
	articles.Put("/:articleId/comments/:commentId", s.EditComment)
	articles.Delete("/:articleId/comments/:commentId", s.DeleteComment)
	articles.Post("/:id/upload-image", s.UploadArticleImage)
	articles.Post("/:id/upload-media", s.UploadArticleMedia)
	articles.Get("/:id", s.GetArticle)
	articles.Put("/:id", s.UpdateArticle)
	articles.Delete("/:id", s.DeleteArticle)

	app.Get("/comments", s.ListAllComments)

	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/register", s.limiter.Limit("register", 3, 10*time.Minute, middleware.FailOpen), s.Register)
	users.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	users.Post("/logout", s.Logout)
	users.Put("/:id/role", s.UpdateUserRole)
	users.Post("/:id/upload-profile-picture", s.UploadProfilePicture)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.UpdateUser)
	users.Delete("/:id", s.DeleteUser)

	for _, dir := range storage.Dirs {
		app.Use("/"+dir, filesystem.New(filesystem.Config{
			Root:   s.files.HTTPFS(dir),
			MaxAge: 3600,
		}))
	}

	app.Get("/ws/events", s.RequireWebSocket, s.EventStreamHandler())
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Blog API",
		BodyLimit:     s.config.MaxUploadBytes(),
		CaseSensitive: true,
		ErrorHandler:  errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError("", err))
}

// Start wires the event hub and listens on the configured port.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	app := s.NewApp()

	if s.redis != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Warn("event relay not started", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down event hub", slog.String("error", err.Error()))
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

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports 503 when the database is unreachable. Redis is
// reported but optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
