package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/api/handlers"
	"github.com/oneboxhq/onebox-backend/internal/api/middleware"
	"github.com/oneboxhq/onebox-backend/internal/store"
	"github.com/oneboxhq/onebox-backend/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB       *gorm.DB
	Store    store.EmailStore
	Hub      *websocket.Hub
	Sessions handlers.SessionStatusProvider
	Logger   *slog.Logger

	// Security configuration
	AllowedOrigins string
	AppEnv         string
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware (applied in order)
	e.Use(middleware.Recover())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.AppEnv))
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	emailHandler := handlers.NewEmailHandler(cfg.Store, logger)
	statsHandler := handlers.NewStatsHandler(cfg.Store, logger)
	accountHandler := handlers.NewAccountHandler(cfg.Sessions, cfg.Store, logger)
	wsHandler := handlers.NewWSHandler(cfg.Hub, logger)

	// Health routes
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Live email push
	e.GET("/ws", wsHandler.Serve)

	// API routes
	api := e.Group("/api")

	emails := api.Group("/emails")
	emails.GET("", emailHandler.List)
	emails.GET("/:id", emailHandler.Get)

	api.GET("/stats", statsHandler.Stats)
	api.GET("/stats/filtered", statsHandler.FilteredStats)

	api.GET("/accounts", accountHandler.List)
	api.GET("/folders", accountHandler.Folders)

	return e
}
