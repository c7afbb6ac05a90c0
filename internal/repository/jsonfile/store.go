// Package jsonfile is the flat-file back-end for deployments that run
// without Postgres. One JSON document holds users, one-time tokens, and the
// audit log; a store-wide mutex gives the same atomicity the relational
// back-end gets from transactions.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

const storeFile = "auth-db.json"

type state struct {
	Users  []models.User         `json:"users"`
	Tokens []models.OneTimeToken `json:"tokens"`
	Audit  []models.AuditEntry   `json:"audit"`
}

type Store struct {
	path string

	mu sync.Mutex
	st state
}

var _ repository.TxRunner = (*Store)(nil)

// Open loads the store file from dir. An absent file is the legitimate
// first-run state; a file that exists but does not decode is reported as
// ErrCorruptState instead of being silently replaced.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{path: filepath.Join(dir, storeFile)}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if err := json.Unmarshal(raw, &s.st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorruptState, s.path, err)
	}
	return s, nil
}

func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) cloneLocked() (state, error) {
	raw, err := json.Marshal(s.st)
	if err != nil {
		return state{}, err
	}
	var snapshot state
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return state{}, err
	}
	return snapshot, nil
}

// Run emulates the relational transaction: mutations apply to the in-memory
// state and either persist as a whole or roll back to the snapshot.
func (s *Store) Run(_ context.Context, fn func(users repository.UserStore, tokens repository.TokenStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.cloneLocked()
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}

	if err := fn(txUsers{store: s}, txTokens{store: s}); err != nil {
		s.st = snapshot
		return err
	}
	return s.persistLocked()
}

// ---- users ----

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *Store) findUserLocked(id string) int {
	for i := range s.st.Users {
		if s.st.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) conflictLocked(username, email, excludeID string) bool {
	for i := range s.st.Users {
		u := &s.st.Users[i]
		if u.ID == excludeID {
			continue
		}
		if username != "" && equalFold(u.Username, username) {
			return true
		}
		if email != "" && equalFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) createUserLocked(user models.User) error {
	if s.conflictLocked(user.Username, user.Email, "") {
		return repository.ErrDuplicate
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	s.st.Users = append(s.st.Users, user)
	return nil
}

func (s *Store) getUserLocked(id string) (models.User, error) {
	if i := s.findUserLocked(id); i >= 0 {
		return s.st.Users[i], nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *Store) findByIdentifierLocked(handle string) (models.User, error) {
	for i := range s.st.Users {
		u := s.st.Users[i]
		if equalFold(u.Username, handle) || equalFold(u.Email, handle) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *Store) findByEmailLocked(email string) (models.User, error) {
	for i := range s.st.Users {
		if equalFold(s.st.Users[i].Email, email) {
			return s.st.Users[i], nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *Store) updateUserLocked(id string, upd repository.UserUpdate) (models.User, error) {
	i := s.findUserLocked(id)
	if i < 0 {
		return models.User{}, repository.ErrUserNotFound
	}

	username, email := "", ""
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Email != nil {
		email = *upd.Email
	}
	if s.conflictLocked(username, email, id) {
		return models.User{}, repository.ErrDuplicate
	}

	now := time.Now()
	u := &s.st.Users[i]
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = upd.PasswordHash
	}
	if upd.VerifyNow {
		u.EmailVerifiedAt = &now
	}
	if upd.Active != nil {
		if *upd.Active {
			u.DeletedAt = nil
		} else if u.DeletedAt == nil {
			u.DeletedAt = &now
		}
	}
	u.UpdatedAt = now
	return *u, nil
}

func (s *Store) hardDeleteLocked(id string) error {
	i := s.findUserLocked(id)
	if i < 0 {
		return repository.ErrUserNotFound
	}
	s.st.Users = append(s.st.Users[:i], s.st.Users[i+1:]...)

	kept := s.st.Tokens[:0]
	for _, tok := range s.st.Tokens {
		if tok.UserID != id {
			kept = append(kept, tok)
		}
	}
	s.st.Tokens = kept
	return nil
}

func (s *Store) listUsersLocked(filter repository.UserFilter) ([]models.User, string, error) {
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	var matched []models.User
	for i := range s.st.Users {
		u := s.st.Users[i]
		if q != "" &&
			!strings.Contains(strings.ToLower(u.Username), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		switch filter.State {
		case repository.UserStateActive:
			if u.DeletedAt != nil {
				continue
			}
		case repository.UserStateInactive:
			if u.DeletedAt == nil {
				continue
			}
		}
		matched = append(matched, u)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := 0
	if filter.Cursor != "" {
		for i := range matched {
			if matched[i].ID == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	if start > len(matched) {
		start = len(matched)
	}
	matched = matched[start:]

	nextCursor := ""
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		nextCursor = matched[len(matched)-1].ID
	}
	return matched, nextCursor, nil
}

func (s *Store) statsLocked() repository.UserStats {
	var stats repository.UserStats
	for i := range s.st.Users {
		u := s.st.Users[i]
		stats.Total++
		if u.DeletedAt == nil {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if u.EmailVerifiedAt != nil {
			stats.Verified++
		}
	}
	return stats
}

func (s *Store) countByRoleLocked(role models.UserRole) int {
	count := 0
	for i := range s.st.Users {
		if s.st.Users[i].Role == role && s.st.Users[i].DeletedAt == nil {
			count++
		}
	}
	return count
}

// ---- tokens ----

func (s *Store) createTokenLocked(token models.OneTimeToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.st.Tokens = append(s.st.Tokens, token)
	return nil
}

func (s *Store) getTokenLocked(id string) (models.OneTimeToken, error) {
	for i := range s.st.Tokens {
		if s.st.Tokens[i].ID == id {
			return s.st.Tokens[i], nil
		}
	}
	return models.OneTimeToken{}, repository.ErrTokenNotFound
}

func (s *Store) markUsedLocked(id string, now time.Time) error {
	for i := range s.st.Tokens {
		if s.st.Tokens[i].ID != id {
			continue
		}
		if s.st.Tokens[i].UsedAt != nil {
			return repository.ErrTokenUsed
		}
		s.st.Tokens[i].UsedAt = &now
		return nil
	}
	return repository.ErrTokenUsed
}

func (s *Store) deleteSpentLocked(now time.Time) int64 {
	var removed int64
	kept := s.st.Tokens[:0]
	for _, tok := range s.st.Tokens {
		if tok.UsedAt != nil || tok.ExpiresAt.Before(now) {
			removed++
			continue
		}
		kept = append(kept, tok)
	}
	s.st.Tokens = kept
	return removed
}

// ---- audit ----

func (s *Store) appendAuditLocked(entry models.AuditEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.st.Audit = append(s.st.Audit, entry)
}

func (s *Store) listAuditLocked(filter repository.AuditFilter) ([]models.AuditEntry, string) {
	action := strings.ToUpper(strings.TrimSpace(filter.Action))

	var matched []models.AuditEntry
	for i := range s.st.Audit {
		if action != "" && s.st.Audit[i].Action != action {
			continue
		}
		matched = append(matched, s.st.Audit[i])
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := 0
	if filter.Cursor != "" {
		for i := range matched {
			if matched[i].ID == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	if start > len(matched) {
		start = len(matched)
	}
	matched = matched[start:]

	nextCursor := ""
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		nextCursor = matched[len(matched)-1].ID
	}
	return matched, nextCursor
}
