package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/services"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/transport/http/dto"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged in full and reported as a bare 500.
func respondError(c *fiber.Ctx, log *logger.Logger, op string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Warnw(op+"_validation_failed", "details", verr.Fields)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   verr.Message,
			Details: verr.Fields,
		})
	case errors.Is(err, domain.ErrTaskNotFound):
		return notFound(c, log, op, "task not found")
	case errors.Is(err, domain.ErrTeamNotFound):
		return notFound(c, log, op, "team not found")
	case errors.Is(err, domain.ErrPlantNotFound):
		return notFound(c, log, op, "plant not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return notFound(c, log, op, "user not found")
	case errors.Is(err, domain.ErrInvalidState):
		log.Warnw(op+"_conflict", "error", err)
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		log.Warnw(op+"_unauthorized")
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, services.ErrForbidden):
		log.Warnw(op+"_forbidden", "error", err)
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "forbidden"})
	}
	log.Errorw(op+"_failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
}

func notFound(c *fiber.Ctx, log *logger.Logger, op, message string) error {
	log.Warnw(op+"_not_found", "path", c.Path())
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: message})
}

func badRequest(c *fiber.Ctx, message string, details ...string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: message, Details: details})
}

func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
