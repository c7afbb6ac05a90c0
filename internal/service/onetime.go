package service

import (
	"context"
	"errors"
	"time"

	"navio/api/internal/ids"
	"navio/api/internal/models"
	"navio/api/internal/repository"
	"navio/api/internal/security"
)

// oneTimeTokens issues and checks single-use tokens. The lookup key (token
// id) is separate from the secret, so redemption finds the record without
// making the secret guessable from the id, and only the secret's digest is
// at rest.
type oneTimeTokens struct {
	store repository.TokenStore
}

func (t oneTimeTokens) Issue(ctx context.Context, userID string, typ models.TokenType, ttl time.Duration) (string, string, error) {
	secret, digest, err := security.NewOneTimeSecret()
	if err != nil {
		return "", "", err
	}

	token := models.OneTimeToken{
		ID:          ids.New(),
		UserID:      userID,
		Type:        typ,
		HashedToken: digest,
		ExpiresAt:   time.Now().Add(ttl),
	}
	if err := t.store.Create(ctx, token); err != nil {
		return "", "", err
	}
	return token.ID, secret, nil
}

// Check validates a redemption attempt without consuming the token. The
// actual mark-used happens inside the caller's transaction so it commits
// together with the dependent mutation.
func (t oneTimeTokens) Check(ctx context.Context, tokenID, secret string, typ models.TokenType) (models.OneTimeToken, error) {
	token, err := t.store.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return models.OneTimeToken{}, ErrTokenInvalid
		}
		return models.OneTimeToken{}, err
	}

	if token.Type != typ {
		return models.OneTimeToken{}, ErrTokenTypeMismatch
	}
	if token.UsedAt != nil || token.ExpiresAt.Before(time.Now()) {
		return models.OneTimeToken{}, ErrTokenExpiredOrUsed
	}
	if !security.VerifyOneTimeSecret(secret, token.HashedToken) {
		return models.OneTimeToken{}, ErrTokenInvalid
	}
	return token, nil
}
