package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/transport/http/dto"
)

type AuthHandler struct {
	service ports.AuthService
	logger  *logger.Logger
}

func NewAuthHandler(service ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("auth_login_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, "username and password are required", errors...)
	}

	h.logger.Infow("auth_login_request", "username", req.Username)
	user, token, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, h.logger, "auth_login", err)
	}

	h.logger.Infow("auth_login_success", "username", user.Username, "role", user.Role)
	return c.JSON(dto.UserToLoginResponse(user, token))
}
