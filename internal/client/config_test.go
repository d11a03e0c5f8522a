package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dispatchctl.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}

	cfg.Username = "luca.verdi"
	cfg.Token = "abc"
	cfg.TeamID = 2
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *loaded != *cfg {
		t.Fatalf("reloaded %+v, want %+v", loaded, cfg)
	}
}

func TestConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("base_url: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
