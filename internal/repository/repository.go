// Package repository defines the storage ports shared by the relational and
// the flat-file back-ends. Which implementation serves a deployment is
// selected by configuration, not by duplicated call sites.
package repository

import (
	"context"
	"errors"
	"time"

	"navio/api/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenUsed means the conditional mark-used matched no row: the token
	// was already redeemed by a concurrent or earlier request.
	ErrTokenUsed = errors.New("token already used")
	// ErrDuplicate is the translated uniqueness violation on username/email.
	ErrDuplicate = errors.New("username or email already taken")
	// ErrCorruptState marks persisted state that exists but cannot be
	// decoded. Distinct from "absent", which is a legitimate first-run state.
	ErrCorruptState = errors.New("persisted state is corrupt")
)

// UserStateFilter narrows a listing by soft-deletion state.
type UserStateFilter string

const (
	UserStateAny      UserStateFilter = ""
	UserStateActive   UserStateFilter = "active"
	UserStateInactive UserStateFilter = "inactive"
)

// UserFilter drives cursor-paginated listing. Query matches username or
// email as a case-insensitive substring. Cursor is the id of the last record
// of the previous page under a stable created-at-descending order.
type UserFilter struct {
	Query  string
	State  UserStateFilter
	Limit  int
	Cursor string
}

// UserUpdate is a selective patch; nil fields are left untouched.
type UserUpdate struct {
	Username     *string
	Email        *string
	Role         *models.UserRole
	PasswordHash []byte
	// VerifyNow stamps email_verified_at; an admin-only override next to the
	// regular token redemption path.
	VerifyNow bool
	// Active true clears deleted_at, false sets it.
	Active *bool
}

type UserStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Verified int `json:"verified"`
}

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	// FindByIdentifier resolves a login handle: username or email,
	// case-insensitive.
	FindByIdentifier(ctx context.Context, handle string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (models.User, error)
	HardDelete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter) ([]models.User, string, error)
	Stats(ctx context.Context) (UserStats, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type TokenStore interface {
	Create(ctx context.Context, token models.OneTimeToken) error
	GetByID(ctx context.Context, id string) (models.OneTimeToken, error)
	// MarkUsed is conditional on used_at being unset and returns
	// ErrTokenUsed otherwise, so a second redemption always loses.
	MarkUsed(ctx context.Context, id string, now time.Time) error
	// DeleteSpent removes used or expired tokens. Storage hygiene only;
	// correctness never depends on it.
	DeleteSpent(ctx context.Context, now time.Time) (int64, error)
}

type AuditFilter struct {
	Action string
	Limit  int
	Cursor string
}

type AuditStore interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, string, error)
}

// TxRunner runs fn against transaction-bound stores: either every write in
// fn commits, or none does. Token redemption relies on this to keep
// mark-used and the dependent user mutation atomic.
type TxRunner interface {
	Run(ctx context.Context, fn func(users UserStore, tokens TokenStore) error) error
}
