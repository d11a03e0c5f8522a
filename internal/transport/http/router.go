package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/core/services"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/db"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/infrastructure/realtime"
	"github.com/solarops/dispatch/internal/transport/http/handlers"
	httpmw "github.com/solarops/dispatch/internal/transport/http/middleware"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
	Hub    *realtime.Hub
	Auth   ports.AuthService

	// SerializeLocally is forwarded to the task service.
	SerializeLocally bool
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	// Initialize repositories
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	teamRepo := db.NewTeamRepository(cfg.DB, cfg.Logger)
	plantRepo := db.NewPlantRepository(cfg.DB, cfg.Logger)
	timelineRepo := db.NewTimelineRepository(cfg.DB, cfg.Logger)

	// Initialize services
	taskService := services.NewTaskService(services.TaskServiceConfig{
		TaskRepo:         taskRepo,
		TimelineRepo:     timelineRepo,
		Broadcaster:      cfg.Hub,
		Logger:           cfg.Logger,
		Dispatch:         cfg.Config.Dispatch,
		SerializeLocally: cfg.SerializeLocally,
	})
	teamService := services.NewTeamService(services.TeamServiceConfig{
		TeamRepo:     teamRepo,
		TimelineRepo: timelineRepo,
		Broadcaster:  cfg.Hub,
		Logger:       cfg.Logger,
	})
	plantService := services.NewPlantService(plantRepo, cfg.Logger)
	statsService := services.NewStatsService(taskRepo, teamRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.Auth, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	teamHandler := handlers.NewTeamHandler(teamService, cfg.Logger)
	plantHandler := handlers.NewPlantHandler(plantService, cfg.Logger)
	statsHandler := handlers.NewStatsHandler(statsService, cfg.Logger)
	timelineHandler := handlers.NewTimelineHandler(timelineRepo, cfg.Logger)
	realtimeHandler := handlers.NewRealtimeHandler(cfg.Hub, cfg.Logger, cfg.Config.Realtime.PongWait)

	requireAuth := httpmw.RequireAuth(cfg.Auth)
	managerOnly := httpmw.RequireRole(domain.RoleManager)
	anyRole := httpmw.RequireRole(domain.RoleManager, domain.RoleOperator)

	// Realtime channel
	wsPath := cfg.Config.Realtime.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	app.Use(wsPath, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get(wsPath, websocket.New(realtimeHandler.Handle))

	api := app.Group("/api")

	api.Post("/auth/login", authHandler.Login)

	// Task routes
	tasks := api.Group("/tasks")
	tasks.Get("/", taskHandler.GetTasks)
	tasks.Get("/:id", taskHandler.GetTask)
	tasks.Post("/", requireAuth, managerOnly, taskHandler.CreateTask)
	tasks.Patch("/:id", requireAuth, managerOnly, taskHandler.UpdateTask)
	tasks.Delete("/:id", requireAuth, managerOnly, taskHandler.DeleteTask)
	tasks.Post("/:id/assign", requireAuth, anyRole, taskHandler.AssignTask)
	tasks.Post("/:id/complete", requireAuth, anyRole, taskHandler.CompleteTask)

	// Team routes
	teams := api.Group("/teams")
	teams.Get("/", teamHandler.GetTeams)
	teams.Get("/:id", teamHandler.GetTeam)
	teams.Patch("/:id", requireAuth, managerOnly, teamHandler.UpdateTeam)

	// Plant routes
	plants := api.Group("/plants")
	plants.Get("/search", plantHandler.SearchPlants)
	plants.Get("/", plantHandler.GetPlants)
	plants.Post("/", requireAuth, managerOnly, plantHandler.CreatePlant)

	api.Get("/stats", statsHandler.GetStats)
	api.Get("/timeline", timelineHandler.GetEvents)
	api.Get("/realtime/stats", requireAuth, managerOnly, realtimeHandler.Stats)
}
