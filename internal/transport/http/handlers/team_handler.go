package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/transport/http/dto"
)

type TeamHandler struct {
	service ports.TeamService
	logger  *logger.Logger
}

func NewTeamHandler(service ports.TeamService, logger *logger.Logger) *TeamHandler {
	return &TeamHandler{service: service, logger: logger}
}

func (h *TeamHandler) GetTeams(c *fiber.Ctx) error {
	teams, err := h.service.GetTeams(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "teams_list", err)
	}
	return c.JSON(teams)
}

func (h *TeamHandler) GetTeam(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	team, err := h.service.GetTeamByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "team_get", err)
	}
	return c.JSON(team)
}

func (h *TeamHandler) UpdateTeam(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	req, errors := dto.ParseUpdateTeamRequest(c.Body())
	if len(errors) > 0 {
		h.logger.Warnw("team_update_validation_failed", "id", id, "details", errors)
		return badRequest(c, "validation failed", errors...)
	}

	h.logger.Infow("team_update_request", "id", id)
	team, err := h.service.UpdateTeam(c.UserContext(), id, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, "team_update", err)
	}
	h.logger.Infow("team_update_success", "id", id, "status", team.Status)
	return c.JSON(team)
}
