package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/interview/api/http/presenter"
	"github.com/artem13815/interview/pkg/health"
)

type HealthHandler struct {
	readiness health.ReadinessUseCase
}

func NewHealthHandler(readiness health.ReadinessUseCase) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// Health is the liveness probe.
// @Summary Liveness probe
// @Tags    Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return presenter.JSON(c, http.StatusOK, fiber.Map{"status": "ok"})
}

// Ready is the readiness probe; it checks the session store.
// @Summary Readiness probe
// @Tags    Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} presenter.ErrorResponse
// @Router  /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.readiness.Ready(c.Context()); err != nil {
		return presenter.Error(c, http.StatusServiceUnavailable, err.Error())
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"status": "ready"})
}
