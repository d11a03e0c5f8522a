package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Dispatch.HomeBase != "Base Operativa" {
		t.Errorf("unexpected home base %q", cfg.Dispatch.HomeBase)
	}
	if cfg.Dispatch.FreeNowLabel != "Libera ora" {
		t.Errorf("unexpected free-now label %q", cfg.Dispatch.FreeNowLabel)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("expected 12h token ttl, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Realtime.Path != "/ws" {
		t.Errorf("expected /ws, got %s", cfg.Realtime.Path)
	}
	if cfg.Realtime.PingInterval != 30*time.Second || cfg.Realtime.PongWait != 60*time.Second {
		t.Errorf("unexpected keepalive %s/%s", cfg.Realtime.PingInterval, cfg.Realtime.PongWait)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
database:
  driver: sqlite
  path: /tmp/x.db
dispatch:
  home_base: Magazzino
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DISPATCH_AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/x.db" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Dispatch.HomeBase != "Magazzino" {
		t.Errorf("expected file override, got %q", cfg.Dispatch.HomeBase)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadRejectsPongWaitBelowPingInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
realtime:
  ping_interval: 30s
  pong_wait: 10s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected keepalive validation error")
	}
}
