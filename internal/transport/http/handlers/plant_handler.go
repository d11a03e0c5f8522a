package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/transport/http/dto"
)

type PlantHandler struct {
	service ports.PlantService
	logger  *logger.Logger
}

func NewPlantHandler(service ports.PlantService, logger *logger.Logger) *PlantHandler {
	return &PlantHandler{service: service, logger: logger}
}

func (h *PlantHandler) GetPlants(c *fiber.Ctx) error {
	plants, err := h.service.GetPlants(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "plants_list", err)
	}
	return c.JSON(plants)
}

func (h *PlantHandler) SearchPlants(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return badRequest(c, "Query parameter q is required")
	}
	plants, err := h.service.SearchPlants(c.UserContext(), q)
	if err != nil {
		return respondError(c, h.logger, "plants_search", err)
	}
	h.logger.Debugw("plants_search_success", "q", q, "count", len(plants))
	return c.JSON(plants)
}

func (h *PlantHandler) CreatePlant(c *fiber.Ctx) error {
	var req dto.CreatePlantRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("plant_create_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}

	h.logger.Infow("plant_create_request", "name", req.Name)
	plant, err := h.service.CreatePlant(c.UserContext(), req.ToInput())
	if err != nil {
		return respondError(c, h.logger, "plant_create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(plant)
}
