package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/core/services"
	"github.com/solarops/dispatch/internal/infrastructure/db"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/infrastructure/realtime"
	transporthttp "github.com/solarops/dispatch/internal/transport/http"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		*configPath = "../config/config.yaml"
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	database, err := db.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	log.Infow("database connection established", "driver", cfg.Database.Driver)

	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Info("database migrations completed")

	ctx := context.Background()
	if cfg.Dispatch.SeedDefaults {
		if err := db.Seed(ctx, database, cfg.Dispatch, log); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
	}

	keys := services.NewKeyManager(db.NewSystemSettingRepository(database, log), cfg.Security.EncryptionKey, log)
	if err := keys.Initialize(ctx, cfg.Auth.JWTSecret); err != nil {
		log.Fatalf("failed to initialize signing key: %v", err)
	}

	auth, err := services.NewAuthService(services.AuthServiceConfig{
		UserRepo: db.NewUserRepository(database, log),
		Secret:   keys.Secret(),
		TokenTTL: cfg.Auth.TokenTTL,
		Logger:   log,
	})
	if err != nil {
		log.Fatalf("failed to initialize auth: %v", err)
	}

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, log, realtime.WithPingInterval(cfg.Realtime.PingInterval))

	app := transporthttp.NewApp(transporthttp.RouterConfig{
		DB:               database,
		Logger:           log,
		Config:           cfg,
		Hub:              hub,
		Auth:             auth,
		SerializeLocally: cfg.Database.Driver == "sqlite",
	})

	addr := cfg.Server.Address()
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()
	log.Infof("server started on %s", addr)

	gracefulShutdown(app, hub, database, log)
}

func gracefulShutdown(app *fiber.App, hub *realtime.Hub, database *gorm.DB, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Closing the subscribers first lets their handlers return before fiber
	// waits on open connections.
	hub.Shutdown()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	if err := db.Close(database); err != nil {
		log.Errorf("failed to close database connection: %v", err)
	}

	log.Info("server exited gracefully")
}
