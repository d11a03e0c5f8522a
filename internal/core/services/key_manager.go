package services

import (
	"context"
	"fmt"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/pkg/utils/crypto"
	"github.com/solarops/dispatch/pkg/utils/keygen"
)

const (
	SettingJWTSecret = "auth.jwt_secret"
	settingCategory  = "security"
	secretLength     = 48
)

// KeyManager resolves the token signing secret. A configured secret wins;
// otherwise the secret persisted in system_settings is used, generating and
// storing one on first start so tokens survive restarts.
type KeyManager struct {
	settings      ports.SystemSettingRepository
	logger        *logger.Logger
	encryptionKey string
	secret        string
}

func NewKeyManager(settings ports.SystemSettingRepository, encryptionKey string, logger *logger.Logger) *KeyManager {
	return &KeyManager{
		settings:      settings,
		logger:        logger,
		encryptionKey: encryptionKey,
	}
}

func (km *KeyManager) Initialize(ctx context.Context, configured string) error {
	if configured != "" {
		km.secret = configured
		km.logger.Info("JWT secret loaded from configuration")
		return nil
	}

	setting, err := km.settings.Get(ctx, SettingJWTSecret)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if setting != nil && setting.Value != "" {
		secret, err := km.open(setting)
		if err != nil {
			return err
		}
		km.secret = secret
		km.logger.Info("JWT secret loaded from database")
		return nil
	}

	km.logger.Info("Generating new JWT secret...")
	if err := km.generateAndSave(ctx); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	km.logger.Info("JWT secret generated and saved to database")
	return nil
}

// generateAndSave stores a fresh secret unless another server stored one
// first, in which case that one is adopted.
func (km *KeyManager) generateAndSave(ctx context.Context) error {
	secret := keygen.GenerateRandomPassword(secretLength)

	value, valueType := secret, "string"
	if km.encryptionKey != "" {
		sealed, err := crypto.Seal(secret, km.encryptionKey, SettingJWTSecret)
		if err != nil {
			return err
		}
		value, valueType = sealed, "encrypted"
	}

	stored, created, err := km.settings.CreateIfAbsent(ctx, &domain.SystemSetting{
		Key:      SettingJWTSecret,
		Value:    value,
		Type:     valueType,
		Category: settingCategory,
	})
	if err != nil {
		return err
	}
	if !created {
		km.logger.Info("JWT secret was stored concurrently, using the stored one")
		secret, err = km.open(stored)
		if err != nil {
			return err
		}
	}
	km.secret = secret
	return nil
}

func (km *KeyManager) open(setting *domain.SystemSetting) (string, error) {
	if setting.Type != "encrypted" {
		return setting.Value, nil
	}
	if km.encryptionKey == "" {
		return "", fmt.Errorf("%w: stored secret is encrypted but no encryption key is configured", ErrSigningKeyUnavailable)
	}
	secret, err := crypto.Open(setting.Value, km.encryptionKey, SettingJWTSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningKeyUnavailable, err)
	}
	return secret, nil
}

func (km *KeyManager) Secret() string {
	return km.secret
}
