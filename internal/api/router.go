package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/fieldforce/location-tracker/internal/api/handler"
	"github.com/fieldforce/location-tracker/internal/api/middleware"
	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
	"github.com/fieldforce/location-tracker/internal/infrastructure/http/handlers"

	_ "github.com/fieldforce/location-tracker/docs"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	JWTSecret       string
	Logger          zerolog.Logger
	AuthService     ports.AuthService
	LocationService ports.LocationService
	Hub             handler.Subscriber
	Health          *handlers.HealthDependenciesHandler
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "location_tracker",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if cfg.Health != nil {
		e.GET("/health/ready", cfg.Health.Readiness)
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Location routes ---
	locationHandler := handler.NewLocationHandler(cfg.LocationService)
	locations := e.Group("/locations", middleware.Auth(cfg.JWTSecret))
	locations.POST("", locationHandler.Record)
	locations.GET("/last", locationHandler.Last)
	locations.GET("/history", locationHandler.History)
	locations.GET("/all", locationHandler.All, middleware.RequireRole(domain.RoleManager))
	locations.GET("/nearby", locationHandler.Nearby)

	// --- Broadcast channel ---
	if cfg.Hub != nil {
		ws := handler.NewBroadcastHandler(cfg.Hub, cfg.Logger)
		e.GET("/ws", ws.Serve, middleware.WebSocketAuth(cfg.JWTSecret))
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
