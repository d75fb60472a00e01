package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health, the liveness check.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Dependency is something the readiness check pings.
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
}

// ObserverCounter reports open broadcast sessions.
type ObserverCounter interface {
	Count() int
}

// HealthDependenciesHandler handles GET /health/ready, the readiness check.
type HealthDependenciesHandler struct {
	deps      []Dependency
	observers ObserverCounter
	timeout   time.Duration
}

func NewHealthDependenciesHandler(observers ObserverCounter, deps ...Dependency) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		deps:      deps,
		observers: observers,
		timeout:   3 * time.Second,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
	Observers    int                         `json:"observers"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true

	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			deps[d.Name()] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[d.Name()] = dependencyStatus{Status: "ok"}
	}

	resp := readinessResponse{Status: "ok", Dependencies: deps}
	if h.observers != nil {
		resp.Observers = h.observers.Count()
	}
	httpStatus := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	return c.JSON(httpStatus, resp)
}
