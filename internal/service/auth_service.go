package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"navio/api/internal/cache"
	"navio/api/internal/config"
	"navio/api/internal/ids"
	"navio/api/internal/mail"
	"navio/api/internal/models"
	"navio/api/internal/repository"
	"navio/api/internal/security"
)

type AuthService struct {
	users    repository.UserStore
	tokens   oneTimeTokens
	auditLog repository.AuditStore
	tx       repository.TxRunner
	mailer   mail.Mailer
	limiter  *cache.RateLimiter
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users repository.UserStore,
	tokens repository.TokenStore,
	auditLog repository.AuditStore,
	tx repository.TxRunner,
	mailer mail.Mailer,
	limiter *cache.RateLimiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   oneTimeTokens{store: tokens},
		auditLog: auditLog,
		tx:       tx,
		mailer:   mailer,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return ErrMissingFields
	}

	for _, handle := range []string{username, email} {
		if _, err := s.users.FindByIdentifier(ctx, handle); err == nil {
			return repository.ErrDuplicate
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	tokenID, secret, err := s.tokens.Issue(ctx, user.ID, models.TokenTypeEmailVerify, s.cfg.Security.VerifyTokenTTL)
	if err != nil {
		return err
	}

	link := s.verifyLink(tokenID, secret)
	body := fmt.Sprintf(
		`<p>Hallo %s,</p><p>Bitte bestätige deine E-Mail-Adresse:</p><p><a href="%s">E-Mail bestätigen</a></p>`,
		user.Username, link)
	if err := s.mailer.Send(email, "Bitte E-Mail bestätigen", body); err != nil {
		// The account exists either way; the user can request a fresh link.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("verification mail failed")
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditUserRegister,
		ActorID:      user.ID,
		TargetUserID: user.ID,
		Meta:         map[string]any{"username": username, "email": email},
	})
	return nil
}

// VerifyEmail redeems an EMAIL_VERIFY token. Stamping the verification and
// consuming the token commit in one transaction: a concurrent second
// redemption sees the token as used, never a half-applied state.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenID, secret string) error {
	token, err := s.tokens.Check(ctx, tokenID, secret, models.TokenTypeEmailVerify)
	if err != nil {
		return err
	}

	err = s.tx.Run(ctx, func(users repository.UserStore, tokens repository.TokenStore) error {
		if _, err := users.Update(ctx, token.UserID, repository.UserUpdate{VerifyNow: true}); err != nil {
			return err
		}
		return tokens.MarkUsed(ctx, token.ID, time.Now())
	})
	if err != nil {
		if errors.Is(err, repository.ErrTokenUsed) {
			return ErrTokenExpiredOrUsed
		}
		return err
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditUserVerify,
		ActorID:      token.UserID,
		TargetUserID: token.UserID,
	})
	return nil
}

type LoginInput struct {
	Identifier string
	Password   string
	IPAddress  string
}

// Login verifies credentials and returns the user plus a signed session
// token. Unknown identifier and wrong password both surface as
// ErrInvalidCredentials; deactivated and unverified accounts get distinct
// errors so the client can explain the next step.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (models.User, string, error) {
	handle := strings.TrimSpace(input.Identifier)
	if handle == "" || input.Password == "" {
		return models.User{}, "", ErrMissingFields
	}

	limitKey := fmt.Sprintf("login:%s:%s", strings.ToLower(handle), input.IPAddress)
	if !s.limiter.Allow(ctx, limitKey, s.cfg.Security.LoginRateLimit, s.cfg.Security.LoginRateWindow) {
		return models.User{}, "", ErrRateLimited
	}

	user, err := s.users.FindByIdentifier(ctx, handle)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if !user.Active() {
		return models.User{}, "", ErrAccountDeactivated
	}
	if !security.CheckPassword(input.Password, user.PasswordHash) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if !user.Verified() {
		return models.User{}, "", ErrEmailNotVerified
	}

	token, err := security.SignSession(
		user.ID, string(user.Role), user.Username,
		s.cfg.Security.JWTSecret, s.cfg.Security.SessionTTL,
	)
	if err != nil {
		return models.User{}, "", err
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditUserLogin,
		ActorID:      user.ID,
		TargetUserID: user.ID,
	})
	return user, token, nil
}

// Me re-reads the account behind a session so a deactivated or hard-deleted
// user stops resolving even while their token is still formally valid.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if !user.Active() {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

// ForgotPassword always reports success to the caller so the endpoint
// cannot be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrMissingFields
	}

	limitKey := fmt.Sprintf("forgot:%s", email)
	if !s.limiter.Allow(ctx, limitKey, s.cfg.Security.ForgotRateLimit, s.cfg.Security.ForgotRateWindow) {
		s.log.Warn().Str("email", email).Msg("forgot-password rate limited")
		return nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.Active() {
		return nil
	}

	tokenID, secret, err := s.tokens.Issue(ctx, user.ID, models.TokenTypePasswordReset, s.cfg.Security.ResetTokenTTL)
	if err != nil {
		return err
	}

	link := s.resetLink(tokenID, secret)
	body := fmt.Sprintf(
		`<p>Hallo %s,</p><p>Du kannst dein Passwort hier zurücksetzen:</p><p><a href="%s">Passwort zurücksetzen</a></p>`,
		user.Username, link)
	if err := s.mailer.Send(email, "Passwort zurücksetzen", body); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("reset mail failed")
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditPasswordForgot,
		ActorID:      user.ID,
		TargetUserID: user.ID,
	})
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, tokenID, secret, newPassword string) error {
	if tokenID == "" || secret == "" || newPassword == "" {
		return ErrMissingFields
	}

	token, err := s.tokens.Check(ctx, tokenID, secret, models.TokenTypePasswordReset)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword, s.cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	err = s.tx.Run(ctx, func(users repository.UserStore, tokens repository.TokenStore) error {
		if _, err := users.Update(ctx, token.UserID, repository.UserUpdate{PasswordHash: passwordHash}); err != nil {
			return err
		}
		return tokens.MarkUsed(ctx, token.ID, time.Now())
	})
	if err != nil {
		if errors.Is(err, repository.ErrTokenUsed) {
			return ErrTokenExpiredOrUsed
		}
		return err
	}

	s.audit(ctx, models.AuditEntry{
		Action:       models.AuditPasswordReset,
		ActorID:      token.UserID,
		TargetUserID: token.UserID,
	})
	return nil
}

func (s *AuthService) verifyLink(tokenID, secret string) string {
	return fmt.Sprintf("%s/api/auth/verify?tid=%s&t=%s",
		strings.TrimRight(s.cfg.Origins.API, "/"),
		url.QueryEscape(tokenID), url.QueryEscape(secret))
}

func (s *AuthService) resetLink(tokenID, secret string) string {
	return fmt.Sprintf("%s/reset?tid=%s&t=%s",
		strings.TrimRight(s.cfg.Origins.App, "/"),
		url.QueryEscape(tokenID), url.QueryEscape(secret))
}

// audit is best-effort: a failed write is logged and swallowed, never
// surfaced to the triggering operation.
func (s *AuthService) audit(ctx context.Context, entry models.AuditEntry) {
	entry.ID = ids.New()
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", entry.Action).Msg("audit write failed")
	}
}
