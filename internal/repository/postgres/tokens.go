package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

type TokenRepository struct {
	db querier
}

func NewTokenRepository(db querier) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token models.OneTimeToken) error {
	const query = `
		INSERT INTO one_time_tokens (
			id, user_id, type, hashed_token, expires_at, used_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, NULL, NOW()
		)
	`
	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.Type,
		token.HashedToken,
		token.ExpiresAt,
	)
	return err
}

func (r *TokenRepository) GetByID(ctx context.Context, id string) (models.OneTimeToken, error) {
	const query = `
		SELECT id, user_id, type, hashed_token, expires_at, used_at, created_at
		FROM one_time_tokens WHERE id = $1
	`
	var token models.OneTimeToken
	row := r.db.QueryRow(ctx, query, id)
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Type,
		&token.HashedToken,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OneTimeToken{}, repository.ErrTokenNotFound
		}
		return models.OneTimeToken{}, err
	}
	return token, nil
}

// MarkUsed flips used_at exactly once. The condition on used_at makes a
// concurrent second redemption observe the token as already spent.
func (r *TokenRepository) MarkUsed(ctx context.Context, id string, now time.Time) error {
	const query = `
		UPDATE one_time_tokens SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`
	cmd, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrTokenUsed
	}
	return nil
}

func (r *TokenRepository) DeleteSpent(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		DELETE FROM one_time_tokens
		WHERE used_at IS NOT NULL OR expires_at < $1
	`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
