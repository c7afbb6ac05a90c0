package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navio/api/internal/models"
	"navio/api/internal/repository/jsonfile"
)

func TestOneTimeTokenExpiresUnused(t *testing.T) {
	store, err := jsonfile.Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	tokens := oneTimeTokens{store: store.Tokens()}

	tid, secret, err := tokens.Issue(ctx, "u1", models.TokenTypeEmailVerify, -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Check(ctx, tid, secret, models.TokenTypeEmailVerify)
	assert.ErrorIs(t, err, ErrTokenExpiredOrUsed, "expiry alone must block redemption")
}

func TestOneTimeTokenCheckDoesNotConsume(t *testing.T) {
	store, err := jsonfile.Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	tokens := oneTimeTokens{store: store.Tokens()}

	tid, secret, err := tokens.Issue(ctx, "u1", models.TokenTypePasswordReset, time.Hour)
	require.NoError(t, err)

	token, err := tokens.Check(ctx, tid, secret, models.TokenTypePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)

	// Consumption is the transaction's job, a second check still passes.
	_, err = tokens.Check(ctx, tid, secret, models.TokenTypePasswordReset)
	assert.NoError(t, err)
}
