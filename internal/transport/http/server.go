package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	httpmw "github.com/solarops/dispatch/internal/transport/http/middleware"
)

// NewApp builds the fiber application with the global middleware stack and
// every route registered.
func NewApp(cfg RouterConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Config.Server.ReadTimeout,
		WriteTimeout:          cfg.Config.Server.WriteTimeout,
		IdleTimeout:           cfg.Config.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(cfg.Logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:3000"
	if len(cfg.Config.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Config.Auth.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + cfg.Config.Features.RequestIDHeader,
		AllowMethods: "GET, POST, HEAD, PUT, DELETE, PATCH",
	}))

	app.Use(httpmw.RequestID(cfg.Config.Features.RequestIDHeader))
	if cfg.Config.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(cfg.Logger))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "clients": cfg.Hub.Count()})
	})

	SetupRoutes(app, cfg)
	return app
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code < fiber.StatusInternalServerError {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.RequestIDFrom(c),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.RequestIDFrom(c),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
