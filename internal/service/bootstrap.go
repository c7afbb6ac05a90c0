package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"navio/api/internal/config"
	"navio/api/internal/ids"
	"navio/api/internal/models"
	"navio/api/internal/repository"
	"navio/api/internal/security"
)

// EnsureAdmin seeds one pre-verified admin account on first start so a
// fresh deployment can be administered at all. It is a no-op when bootstrap
// is not configured or an active admin already exists.
func EnsureAdmin(ctx context.Context, users repository.UserStore, cfg *config.AppConfig, log zerolog.Logger) error {
	if cfg.Bootstrap.Username == "" {
		return nil
	}

	count, err := users.CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if cfg.Bootstrap.Email == "" || cfg.Bootstrap.Password == "" {
		return fmt.Errorf("bootstrap admin requires email and password")
	}

	passwordHash, err := security.HashPassword(cfg.Bootstrap.Password, cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := models.User{
		ID:              ids.New(),
		Username:        cfg.Bootstrap.Username,
		Email:           cfg.Bootstrap.Email,
		PasswordHash:    passwordHash,
		Role:            models.UserRoleAdmin,
		EmailVerifiedAt: &now,
	}
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("bootstrap admin created")
	return nil
}
