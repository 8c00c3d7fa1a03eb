package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency that can report its availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker checks that the ticket store can be reached.
type StoreChecker interface {
	Version(ctx context.Context) (int64, error)
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	store       StoreChecker
	deps        map[string]Pinger
}

// NewHealthHandler returns a new handler instance. deps holds optional
// dependencies keyed by name; nil entries are skipped.
func NewHealthHandler(serviceName, version string, store StoreChecker, deps map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(deps))
	for name, dep := range deps {
		if dep != nil {
			active[name] = dep
		}
	}
	return &HealthHandler{serviceName: serviceName, version: version, store: store, deps: active}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if _, err := h.store.Version(ctx); err != nil {
		depStatus["store"] = err.Error()
		ready = false
	} else {
		depStatus["store"] = "ok"
	}

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
