package models

import "time"

type TokenType string

const (
	TokenTypeEmailVerify   TokenType = "EMAIL_VERIFY"
	TokenTypePasswordReset TokenType = "PASSWORD_RESET"
)

// OneTimeToken is a single-use, expiring capability. The id is a public
// lookup key; the secret itself is never persisted, only its digest.
type OneTimeToken struct {
	ID          string
	UserID      string
	Type        TokenType
	HashedToken []byte
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}
