package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the index route.
const Version = "1.0.0"

var availableRoutes = []string{
	"GET /",
	"GET /health",
	"POST /api/auth/register",
	"POST /api/auth/login",
	"GET /api/auth/verify",
	"GET /api/users/me",
	"PUT /api/users/me",
	"DELETE /api/users/me",
	"GET /api/tasks",
	"POST /api/tasks",
	"GET /api/tasks/:id",
	"PUT /api/tasks/:id",
	"PATCH /api/tasks/:id",
	"DELETE /api/tasks/:id",
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the unauthenticated service routes.
type SystemHandler struct {
	store   Pinger
	started time.Time
}

// NewSystemHandler creates a new SystemHandler. Uptime is measured from started.
func NewSystemHandler(store Pinger, started time.Time) *SystemHandler {
	return &SystemHandler{store: store, started: started}
}

// RegisterRoutes registers the index and health routes.
func (h *SystemHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Get("/health", h.HandleHealth)
}

func (h *SystemHandler) HandleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "FocusTache API",
		"version": Version,
		"status":  "running",
		"endpoints": fiber.Map{
			"auth":  "/api/auth",
			"tasks": "/api/tasks",
			"users": "/api/users",
		},
	})
}

// HandleHealth reports 200 when the store answers a ping and 503 otherwise.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, database, code := "healthy", "connected", fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "error", err)
		status, database, code = "unhealthy", "disconnected", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"time":     time.Now().UTC().Format(time.RFC3339),
		"uptime":   time.Since(h.started).Seconds(),
		"database": database,
	})
}

// HandleNotFound answers unknown routes with the list of known ones.
func (h *SystemHandler) HandleNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message":         fmt.Sprintf("Route %s %s does not exist", c.Method(), c.OriginalURL()),
		"availableRoutes": availableRoutes,
	})
}
