package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "dispatch"

type authService struct {
	userRepo ports.UserRepository
	secret   []byte
	ttl      time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

type AuthServiceConfig struct {
	UserRepo ports.UserRepository
	Secret   string
	TokenTTL time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

// dispatchClaims carries the role so every mutating request can be
// authorized from the token alone.
type dispatchClaims struct {
	jwt.RegisteredClaims
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	TeamID   *uint       `json:"teamId,omitempty"`
}

func NewAuthService(cfg AuthServiceConfig) (ports.AuthService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrSigningKeyUnavailable
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &authService{
		userRepo: cfg.UserRepo,
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		logger:   cfg.Logger,
		now:      now,
	}, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Infow("auth_login_failed", "username", username, "reason", "unknown user")
			return nil, "", ErrUnauthorized
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Infow("auth_login_failed", "username", username, "reason", "bad password")
		return nil, "", ErrUnauthorized
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	s.logger.Infow("auth_login_ok", "username", user.Username, "role", user.Role)
	return user, token, nil
}

func (s *authService) issue(user *domain.User) (string, error) {
	now := s.now()
	claims := dispatchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: user.Username,
		Role:     user.Role,
		TeamID:   user.TeamID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) ParseToken(token string) (*ports.Actor, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	claims := &dispatchClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	switch claims.Role {
	case domain.RoleManager, domain.RoleOperator:
	default:
		return nil, ErrUnauthorized
	}
	return &ports.Actor{
		UserID:   uint(id),
		Username: claims.Username,
		Role:     claims.Role,
		TeamID:   claims.TeamID,
	}, nil
}

// HashPassword returns the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
