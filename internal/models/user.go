package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleUser       UserRole = "USER"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleDispatcher UserRole = "DISPATCHER"
	UserRoleWarehouse  UserRole = "WAREHOUSE"
)

// ValidRole reports whether role is one of the enumerated roles.
func ValidRole(role UserRole) bool {
	switch role {
	case UserRoleUser, UserRoleAdmin, UserRoleDispatcher, UserRoleWarehouse:
		return true
	}
	return false
}

// ParseRole normalizes a wire role value. ok is false for anything outside
// the enumerated set.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	return role, ValidRole(role)
}

type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    []byte
	Role            UserRole
	EmailVerifiedAt *time.Time
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the account has not been soft-deleted.
func (u User) Active() bool {
	return u.DeletedAt == nil
}

// Verified reports whether the account's email address has been confirmed.
func (u User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
