package controller

import (
	"context"
	"time"

	"ai-consulting-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks one backing dependency.
type Pinger func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) IHealthController {
	return &healthController{checks: checks}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

// Health reports 503 with per-dependency status when any check fails.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(c.checks))
	healthy := true
	for name, check := range c.checks {
		if err := check(pingCtx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		return ctx.Status(fiber.StatusServiceUnavailable).
			JSON(serverutils.ErrorResponseWithData(fiber.StatusServiceUnavailable, "Degraded", status))
	}
	return ctx.JSON(serverutils.SuccessResponse("OK", status))
}
