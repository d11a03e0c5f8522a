package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/solarops/dispatch/internal/infrastructure/db"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

func TestKeyManagerPrefersConfiguredSecret(t *testing.T) {
	f := newFixture(t)
	settings := db.NewSystemSettingRepository(f.db, logger.NewNop())
	km := NewKeyManager(settings, "", logger.NewNop())

	if err := km.Initialize(context.Background(), "from-config"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if km.Secret() != "from-config" {
		t.Fatalf("secret = %q", km.Secret())
	}
	stored, err := settings.Get(context.Background(), SettingJWTSecret)
	if err != nil || stored != nil {
		t.Fatalf("configured secret should not be persisted: %v %v", stored, err)
	}
}

func TestKeyManagerGeneratesAndReloads(t *testing.T) {
	f := newFixture(t)
	settings := db.NewSystemSettingRepository(f.db, logger.NewNop())
	ctx := context.Background()

	first := NewKeyManager(settings, "enc-key", logger.NewNop())
	if err := first.Initialize(ctx, ""); err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(first.Secret()) != secretLength {
		t.Fatalf("secret length = %d", len(first.Secret()))
	}

	stored, err := settings.Get(ctx, SettingJWTSecret)
	if err != nil || stored == nil {
		t.Fatalf("secret not stored: %v", err)
	}
	if stored.Value == first.Secret() || stored.Type != "encrypted" {
		t.Fatalf("stored secret is not encrypted: %+v", stored)
	}

	second := NewKeyManager(settings, "enc-key", logger.NewNop())
	if err := second.Initialize(ctx, ""); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Secret() != first.Secret() {
		t.Fatal("reloaded secret differs")
	}

	noKey := NewKeyManager(settings, "", logger.NewNop())
	if err := noKey.Initialize(ctx, ""); !errors.Is(err, ErrSigningKeyUnavailable) {
		t.Fatalf("expected ErrSigningKeyUnavailable, got %v", err)
	}
}

func TestKeyManagerConcurrentStartsShareSecret(t *testing.T) {
	f := newFixture(t)
	settings := db.NewSystemSettingRepository(f.db, logger.NewNop())

	const servers = 4
	managers := make([]*KeyManager, servers)
	errs := make(chan error, servers)
	var wg sync.WaitGroup
	for i := range managers {
		managers[i] = NewKeyManager(settings, "enc-key", logger.NewNop())
		wg.Add(1)
		go func(km *KeyManager) {
			defer wg.Done()
			errs <- km.Initialize(context.Background(), "")
		}(managers[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("init: %v", err)
		}
	}

	for _, km := range managers[1:] {
		if km.Secret() != managers[0].Secret() {
			t.Fatal("servers started with different signing secrets")
		}
	}
}
