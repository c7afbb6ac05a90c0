package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"navio/api/internal/ids"
	"navio/api/internal/models"
	"navio/api/internal/repository"
)

const (
	defaultUserPageSize  = 24
	maxUserPageSize      = 100
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AdminService struct {
	users    repository.UserStore
	auditLog repository.AuditStore
	log      zerolog.Logger
}

func NewAdminService(users repository.UserStore, auditLog repository.AuditStore, log zerolog.Logger) *AdminService {
	return &AdminService{users: users, auditLog: auditLog, log: log}
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, string, error) {
	filter.Limit = clampLimit(filter.Limit, defaultUserPageSize, maxUserPageSize)
	return s.users.List(ctx, filter)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AdminService) Stats(ctx context.Context) (repository.UserStats, error) {
	return s.users.Stats(ctx)
}

// PatchInput carries a selective admin edit. Nil fields are untouched;
// empty strings after trimming are ignored rather than written.
type PatchInput struct {
	Username  *string
	Email     *string
	Role      *string
	VerifyNow bool
	Active    *bool
}

func (s *AdminService) PatchUser(ctx context.Context, actorID, id string, input PatchInput) (models.User, error) {
	upd := repository.UserUpdate{
		VerifyNow: input.VerifyNow,
		Active:    input.Active,
	}

	if input.Username != nil {
		if username := strings.TrimSpace(*input.Username); username != "" {
			upd.Username = &username
		}
	}
	if input.Email != nil {
		if email := strings.TrimSpace(strings.ToLower(*input.Email)); email != "" {
			upd.Email = &email
		}
	}
	if input.Role != nil {
		role, ok := models.ParseRole(*input.Role)
		if !ok {
			return models.User{}, ErrInvalidRole
		}
		upd.Role = &role
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return models.User{}, err
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditAdminUserUpdate,
		ActorID:      actorID,
		TargetUserID: id,
		Meta: map[string]any{
			"username":  input.Username,
			"email":     input.Email,
			"role":      input.Role,
			"verifyNow": input.VerifyNow,
			"active":    input.Active,
		},
	})
	return user, nil
}

func (s *AdminService) DeactivateUser(ctx context.Context, actorID, id string) (models.User, error) {
	return s.setActive(ctx, actorID, id, false, models.AuditAdminUserDeactivate)
}

func (s *AdminService) ReactivateUser(ctx context.Context, actorID, id string) (models.User, error) {
	return s.setActive(ctx, actorID, id, true, models.AuditAdminUserReactivate)
}

func (s *AdminService) setActive(ctx context.Context, actorID, id string, active bool, action string) (models.User, error) {
	user, err := s.users.Update(ctx, id, repository.UserUpdate{Active: &active})
	if err != nil {
		return models.User{}, err
	}
	s.audit(ctx, models.AuditEntry{
		Action:       action,
		ActorID:      actorID,
		TargetUserID: id,
	})
	return user, nil
}

// DeleteUser soft-deletes by default; hard delete removes the record for
// good and is opt-in per call.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id string, hard bool) (models.User, error) {
	if hard {
		if err := s.users.HardDelete(ctx, id); err != nil {
			return models.User{}, err
		}
		s.audit(ctx, models.AuditEntry{
			Action:       models.AuditAdminUserDelete,
			ActorID:      actorID,
			TargetUserID: id,
			Meta:         map[string]any{"hard": true},
		})
		return models.User{}, nil
	}

	active := false
	user, err := s.users.Update(ctx, id, repository.UserUpdate{Active: &active})
	if err != nil {
		return models.User{}, err
	}
	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditAdminUserDelete,
		ActorID:      actorID,
		TargetUserID: id,
		Meta:         map[string]any{"hard": false},
	})
	return user, nil
}

func (s *AdminService) ListAudit(ctx context.Context, filter repository.AuditFilter) ([]models.AuditEntry, string, error) {
	filter.Limit = clampLimit(filter.Limit, defaultAuditPageSize, maxAuditPageSize)
	filter.Action = strings.ToUpper(strings.TrimSpace(filter.Action))
	return s.auditLog.List(ctx, filter)
}

func (s *AdminService) audit(ctx context.Context, entry models.AuditEntry) {
	entry.ID = ids.New()
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", entry.Action).Msg("audit write failed")
	}
}
