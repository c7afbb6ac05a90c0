package jsonfile

import (
	"context"
	"time"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

// Users, Tokens, and Audit are views over the one shared store, mirroring
// the separate repositories of the relational back-end. The exported views
// take the store mutex and persist after each mutation; the tx variants at
// the bottom run under the mutex Run already holds.

type Users struct{ store *Store }

type Tokens struct{ store *Store }

type Audit struct{ store *Store }

var (
	_ repository.UserStore  = Users{}
	_ repository.TokenStore = Tokens{}
	_ repository.AuditStore = Audit{}
)

func (s *Store) Users() Users   { return Users{store: s} }
func (s *Store) Tokens() Tokens { return Tokens{store: s} }
func (s *Store) Audit() Audit   { return Audit{store: s} }

// ---- users ----

func (v Users) Create(_ context.Context, user models.User) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createUserLocked(user); err != nil {
		return err
	}
	return s.persistLocked()
}

func (v Users) GetByID(_ context.Context, id string) (models.User, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(id)
}

func (v Users) FindByIdentifier(_ context.Context, handle string) (models.User, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByIdentifierLocked(handle)
}

func (v Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByEmailLocked(email)
}

func (v Users) Update(_ context.Context, id string, upd repository.UserUpdate) (models.User, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.updateUserLocked(id, upd)
	if err != nil {
		return models.User{}, err
	}
	if err := s.persistLocked(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (v Users) HardDelete(_ context.Context, id string) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hardDeleteLocked(id); err != nil {
		return err
	}
	return s.persistLocked()
}

func (v Users) List(_ context.Context, filter repository.UserFilter) ([]models.User, string, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listUsersLocked(filter)
}

func (v Users) Stats(_ context.Context) (repository.UserStats, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(), nil
}

func (v Users) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countByRoleLocked(role), nil
}

// ---- tokens ----

func (v Tokens) Create(_ context.Context, token models.OneTimeToken) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createTokenLocked(token); err != nil {
		return err
	}
	return s.persistLocked()
}

func (v Tokens) GetByID(_ context.Context, id string) (models.OneTimeToken, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTokenLocked(id)
}

func (v Tokens) MarkUsed(_ context.Context, id string, now time.Time) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markUsedLocked(id, now); err != nil {
		return err
	}
	return s.persistLocked()
}

func (v Tokens) DeleteSpent(_ context.Context, now time.Time) (int64, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.deleteSpentLocked(now)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

// ---- audit ----

func (v Audit) Append(_ context.Context, entry models.AuditEntry) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAuditLocked(entry)
	return s.persistLocked()
}

func (v Audit) List(_ context.Context, filter repository.AuditFilter) ([]models.AuditEntry, string, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, next := s.listAuditLocked(filter)
	return entries, next, nil
}

// ---- transaction-bound views ----

type txUsers struct{ store *Store }

type txTokens struct{ store *Store }

var (
	_ repository.UserStore  = txUsers{}
	_ repository.TokenStore = txTokens{}
)

func (v txUsers) Create(_ context.Context, user models.User) error {
	return v.store.createUserLocked(user)
}

func (v txUsers) GetByID(_ context.Context, id string) (models.User, error) {
	return v.store.getUserLocked(id)
}

func (v txUsers) FindByIdentifier(_ context.Context, handle string) (models.User, error) {
	return v.store.findByIdentifierLocked(handle)
}

func (v txUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return v.store.findByEmailLocked(email)
}

func (v txUsers) Update(_ context.Context, id string, upd repository.UserUpdate) (models.User, error) {
	return v.store.updateUserLocked(id, upd)
}

func (v txUsers) HardDelete(_ context.Context, id string) error {
	return v.store.hardDeleteLocked(id)
}

func (v txUsers) List(_ context.Context, filter repository.UserFilter) ([]models.User, string, error) {
	return v.store.listUsersLocked(filter)
}

func (v txUsers) Stats(_ context.Context) (repository.UserStats, error) {
	return v.store.statsLocked(), nil
}

func (v txUsers) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	return v.store.countByRoleLocked(role), nil
}

func (v txTokens) Create(_ context.Context, token models.OneTimeToken) error {
	return v.store.createTokenLocked(token)
}

func (v txTokens) GetByID(_ context.Context, id string) (models.OneTimeToken, error) {
	return v.store.getTokenLocked(id)
}

func (v txTokens) MarkUsed(_ context.Context, id string, now time.Time) error {
	return v.store.markUsedLocked(id, now)
}

func (v txTokens) DeleteSpent(_ context.Context, now time.Time) (int64, error) {
	return v.store.deleteSpentLocked(now), nil
}
