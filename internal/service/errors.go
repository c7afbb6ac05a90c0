package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrRateLimited        = errors.New("too many attempts")
	ErrInvalidRole        = errors.New("invalid role")

	// Token redemption failures. The wire response is 400 for all of them;
	// the split exists so tests and logs can tell them apart.
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrTokenExpiredOrUsed = errors.New("token expired or used")

	ErrTourNotFound = errors.New("tour not found")
)
