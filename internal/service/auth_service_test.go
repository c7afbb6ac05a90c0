package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navio/api/internal/config"
	"navio/api/internal/models"
	"navio/api/internal/repository"
	"navio/api/internal/repository/jsonfile"
	"navio/api/internal/security"
)

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	sent []capturedMail
	fail bool
}

func (m *captureMailer) Send(to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

var linkPattern = regexp.MustCompile(`tid=([^&"]+)&t=([^&"]+)`)

func (m *captureMailer) lastToken(t *testing.T) (tokenID, secret string) {
	t.Helper()
	require.NotEmpty(t, m.sent, "expected a mail to have been sent")
	match := linkPattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 3, "mail body must carry a token link")
	return match[1], match[2]
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:      "test-secret",
			CookieName:     "navio_session",
			SessionTTL:     time.Hour,
			VerifyTokenTTL: 24 * time.Hour,
			ResetTokenTTL:  2 * time.Hour,
			BcryptCost:     4,
		},
		Origins: config.OriginsConfig{
			App: "http://app.test",
			API: "http://api.test",
		},
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *jsonfile.Store, *captureMailer) {
	t.Helper()
	store, err := jsonfile.Open(t.TempDir())
	require.NoError(t, err)

	mailer := &captureMailer{}
	svc := NewAuthService(
		store.Users(), store.Tokens(), store.Audit(), store,
		mailer, nil, testConfig(), zerolog.Nop(),
	)
	return svc, store, mailer
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{
		Username: "anna",
		Email:    "Anna@Example.com",
		Password: "secret1234",
	}))

	// Unverified accounts cannot log in yet.
	_, _, err := svc.Login(ctx, LoginInput{Identifier: "anna", Password: "secret1234"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	tid, secret := mailer.lastToken(t)
	require.NoError(t, svc.VerifyEmail(ctx, tid, secret))

	user, token, err := svc.Login(ctx, LoginInput{Identifier: "anna", Password: "secret1234"})
	require.NoError(t, err)
	assert.Equal(t, "anna", user.Username)
	assert.Equal(t, "anna@example.com", user.Email, "email is stored lowercased")

	claims := security.ParseSession(token, "test-secret")
	require.NotNil(t, claims)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(models.UserRoleUser), claims.Role)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))

	err := svc.Register(ctx, RegisterInput{Username: "anna", Email: "fresh@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = svc.Register(ctx, RegisterInput{Username: "fresh", Email: "ANNA@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	assert.Len(t, mailer.sent, 1, "no mail for rejected registrations")
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	err := svc.Register(context.Background(), RegisterInput{Username: " ", Email: "a@b.c", Password: "x"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	svc, store, mailer := newAuthFixture(t)
	mailer.fail = true
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))

	// The account exists; the user can later request a fresh link.
	_, err := store.Users().FindByEmail(ctx, "anna@example.com")
	assert.NoError(t, err)
}

func TestVerifyTokenIsSingleUse(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))
	tid, secret := mailer.lastToken(t)

	require.NoError(t, svc.VerifyEmail(ctx, tid, secret))
	assert.ErrorIs(t, svc.VerifyEmail(ctx, tid, secret), ErrTokenExpiredOrUsed)
}

func TestVerifyRejectsBadSecret(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))
	tid, _ := mailer.lastToken(t)

	assert.ErrorIs(t, svc.VerifyEmail(ctx, tid, "deadbeef"), ErrTokenInvalid)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, "no-such-token", "deadbeef"), ErrTokenInvalid)
}

func TestLoginFailures(t *testing.T) {
	svc, store, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))
	tid, secret := mailer.lastToken(t)
	require.NoError(t, svc.VerifyEmail(ctx, tid, secret))

	_, _, err := svc.Login(ctx, LoginInput{Identifier: "anna", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, LoginInput{Identifier: "nobody", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown handle must be indistinguishable from a bad password")

	user, err := store.Users().FindByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	inactive := false
	_, err = store.Users().Update(ctx, user.ID, repository.UserUpdate{Active: &inactive})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Identifier: "anna", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestMeStopsResolvingDeactivatedAccounts(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))
	user, err := store.Users().FindByEmail(ctx, "anna@example.com")
	require.NoError(t, err)

	got, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	inactive := false
	_, err = store.Users().Update(ctx, user.ID, repository.UserUpdate{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Me(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, mailer.sent, "unknown addresses must not trigger mail")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "oldpass123"}))
	tid, secret := mailer.lastToken(t)
	require.NoError(t, svc.VerifyEmail(ctx, tid, secret))

	require.NoError(t, svc.ForgotPassword(ctx, "anna@example.com"))
	tid, secret = mailer.lastToken(t)

	require.NoError(t, svc.ResetPassword(ctx, tid, secret, "newpass123"))

	_, _, err := svc.Login(ctx, LoginInput{Identifier: "anna", Password: "oldpass123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password must stop working")

	_, _, err = svc.Login(ctx, LoginInput{Identifier: "anna", Password: "newpass123"})
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, tid, secret, "again12345"), ErrTokenExpiredOrUsed)
}

func TestResetTokenCannotVerifyEmail(t *testing.T) {
	svc, _, mailer := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "anna", Email: "anna@example.com", Password: "pw123456"}))
	tid, secret := mailer.lastToken(t)
	require.NoError(t, svc.VerifyEmail(ctx, tid, secret))

	require.NoError(t, svc.ForgotPassword(ctx, "anna@example.com"))
	tid, secret = mailer.lastToken(t)

	assert.ErrorIs(t, svc.VerifyEmail(ctx, tid, secret), ErrTokenTypeMismatch)
}
