package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

type StatsHandler struct {
	service ports.StatsService
	logger  *logger.Logger
}

func NewStatsHandler(service ports.StatsService, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{service: service, logger: logger}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "stats_get", err)
	}
	return c.JSON(stats)
}
