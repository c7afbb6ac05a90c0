package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

func newUser(id, username, email string) models.User {
	return models.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      models.UserRoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestOpenAbsentFileStartsEmpty(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Users().List(context.Background(), repository.UserFilter{Limit: 10})
	require.NoError(t, err)
}

func TestOpenCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storeFile), []byte("{nope"), 0o600))

	_, err := Open(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCorruptState)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	users := store.Users()

	require.NoError(t, users.Create(ctx, newUser("u1", "anna", "anna@example.com")))

	err = users.Create(ctx, newUser("u2", "ANNA", "other@example.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicate, "username match is case-insensitive")

	err = users.Create(ctx, newUser("u3", "bert", "Anna@Example.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicate, "email match is case-insensitive")
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, newUser("u1", "anna", "anna@example.com")))

	reopened, err := Open(dir)
	require.NoError(t, err)

	got, err := reopened.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Username)
}

func TestFindByIdentifier(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	users := store.Users()

	require.NoError(t, users.Create(ctx, newUser("u1", "anna", "anna@example.com")))

	byName, err := users.FindByIdentifier(ctx, "Anna")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	byMail, err := users.FindByIdentifier(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byMail.ID)

	_, err = users.FindByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUpdateUserLifecycle(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	users := store.Users()

	require.NoError(t, users.Create(ctx, newUser("u1", "anna", "anna@example.com")))

	inactive := false
	got, err := users.Update(ctx, "u1", repository.UserUpdate{Active: &inactive})
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	first := *got.DeletedAt

	// Deactivating twice keeps the original timestamp.
	got, err = users.Update(ctx, "u1", repository.UserUpdate{Active: &inactive})
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, first.Equal(*got.DeletedAt))

	active := true
	got, err = users.Update(ctx, "u1", repository.UserUpdate{Active: &active})
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)

	got, err = users.Update(ctx, "u1", repository.UserUpdate{VerifyNow: true})
	require.NoError(t, err)
	assert.NotNil(t, got.EmailVerifiedAt)
}

func TestListUsersPagination(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	users := store.Users()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		u := newUser(id, "user"+id, id+"@example.com")
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, users.Create(ctx, u))
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		page, next, err := users.List(ctx, repository.UserFilter{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, u := range page {
			assert.False(t, seen[u.ID], "no id may appear twice across pages")
			seen[u.ID] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Len(t, seen, 5)
}

func TestListUsersStateFilter(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	users := store.Users()

	require.NoError(t, users.Create(ctx, newUser("u1", "anna", "anna@example.com")))
	require.NoError(t, users.Create(ctx, newUser("u2", "bert", "bert@example.com")))

	inactive := false
	_, err = users.Update(ctx, "u2", repository.UserUpdate{Active: &inactive})
	require.NoError(t, err)

	page, _, err := users.List(ctx, repository.UserFilter{Limit: 10, State: repository.UserStateActive})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u1", page[0].ID)

	page, _, err = users.List(ctx, repository.UserFilter{Limit: 10, State: repository.UserStateInactive})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u2", page[0].ID)
}

func TestHardDeleteRemovesUserAndTokens(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, newUser("u1", "anna", "anna@example.com")))
	require.NoError(t, store.Tokens().Create(ctx, models.OneTimeToken{
		ID:        "t1",
		UserID:    "u1",
		Type:      models.TokenTypeEmailVerify,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.Users().HardDelete(ctx, "u1"))

	_, err = store.Users().GetByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = store.Tokens().GetByID(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestMarkUsedIsSingleShot(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	tokens := store.Tokens()

	require.NoError(t, tokens.Create(ctx, models.OneTimeToken{
		ID:        "t1",
		UserID:    "u1",
		Type:      models.TokenTypePasswordReset,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, tokens.MarkUsed(ctx, "t1", time.Now()))
	assert.ErrorIs(t, tokens.MarkUsed(ctx, "t1", time.Now()), repository.ErrTokenUsed)
}

func TestDeleteSpent(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	tokens := store.Tokens()
	now := time.Now()

	used := now.Add(-time.Minute)
	require.NoError(t, tokens.Create(ctx, models.OneTimeToken{ID: "used", UserID: "u1", ExpiresAt: now.Add(time.Hour), UsedAt: &used}))
	require.NoError(t, tokens.Create(ctx, models.OneTimeToken{ID: "expired", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, tokens.Create(ctx, models.OneTimeToken{ID: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))

	removed, err := tokens.DeleteSpent(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = tokens.GetByID(ctx, "live")
	assert.NoError(t, err)
}

func TestRunRollsBackOnError(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, newUser("u1", "anna", "anna@example.com")))

	boom := errors.New("boom")
	err = store.Run(ctx, func(users repository.UserStore, tokens repository.TokenStore) error {
		_, err := users.Update(ctx, "u1", repository.UserUpdate{VerifyNow: true})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got.EmailVerifiedAt, "failed transaction must not leave changes behind")
}

func TestAuditAppendAndFilter(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	audit := store.Audit()

	for i, action := range []string{models.AuditUserLogin, models.AuditUserRegister, models.AuditUserLogin} {
		require.NoError(t, audit.Append(ctx, models.AuditEntry{
			ID:        string(rune('a' + i)),
			Action:    action,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	entries, _, err := audit.List(ctx, repository.AuditFilter{Action: models.AuditUserLogin, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.AuditUserLogin, e.Action)
	}
}
