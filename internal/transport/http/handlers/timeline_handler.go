package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

const (
	defaultTimelineLimit = 50
	maxTimelineLimit     = 500
)

type TimelineHandler struct {
	repo   ports.TimelineRepository
	logger *logger.Logger
}

func NewTimelineHandler(repo ports.TimelineRepository, logger *logger.Logger) *TimelineHandler {
	return &TimelineHandler{repo: repo, logger: logger}
}

func (h *TimelineHandler) GetEvents(c *fiber.Ctx) error {
	limit := defaultTimelineLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "invalid limit")
		}
		if n > maxTimelineLimit {
			n = maxTimelineLimit
		}
		limit = n
	}

	rtype := c.Query("resourceType")
	ridStr := c.Query("resourceId")
	if rtype != "" || ridStr != "" {
		if rtype != domain.ResourceTask && rtype != domain.ResourceTeam {
			return badRequest(c, "resourceType must be task or team")
		}
		rid, err := strconv.ParseUint(ridStr, 10, 32)
		if err != nil {
			return badRequest(c, "invalid resourceId")
		}
		events, err := h.repo.GetByResource(c.UserContext(), rtype, uint(rid), limit)
		if err != nil {
			return respondError(c, h.logger, "timeline_list", err)
		}
		return c.JSON(events)
	}

	events, err := h.repo.GetAll(c.UserContext(), limit)
	if err != nil {
		return respondError(c, h.logger, "timeline_list", err)
	}
	return c.JSON(events)
}
