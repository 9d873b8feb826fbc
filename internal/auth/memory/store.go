// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package memory provides in-memory implementations of the auth
// collaborators. They serialize all access behind a single mutex and
// are intended for tests and single-process deployments; nothing
// survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// UserStore implements auth.UserStore over process-local maps.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a new user. The email index makes this an
// insert-if-absent: the second of two racing registrations loses.
func (s *UserStore) Create(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return auth.ErrAlreadyExists
	}

	u := *user
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(s.byID[id])
}

// GetByEmail retrieves a user by exact email.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return s.copyOf(s.byID[id])
}

// GetBySessionHash retrieves the user holding the session token hash.
func (s *UserStore) GetBySessionHash(_ context.Context, hash string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if u.SessionHash != nil && *u.SessionHash == hash {
			return s.copyOf(u)
		}
	}
	return nil, auth.ErrNotFound
}

// UpdateSessionHash sets or clears the session token hash.
func (s *UserStore) UpdateSessionHash(_ context.Context, id ulid.ULID, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.SessionHash = copyPtr(hash)
	u.UpdatedAt = time.Now()
	return nil
}

// UpdateResetHash sets or clears the reset token hash.
func (s *UserStore) UpdateResetHash(_ context.Context, id ulid.ULID, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.ResetHash = copyPtr(hash)
	u.UpdatedAt = time.Now()
	return nil
}

// ConsumeResetHash atomically spends a reset token: the password hash
// is replaced and the reset hash cleared under the same lock, so a
// token can be consumed at most once.
func (s *UserStore) ConsumeResetHash(_ context.Context, resetHash, newPasswordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.ResetHash != nil && *u.ResetHash == resetHash {
			u.PasswordHash = newPasswordHash
			u.ResetHash = nil
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return auth.ErrNotFound
}

// copyOf returns a defensive copy so callers cannot mutate store state.
// Callers must hold at least the read lock.
func (s *UserStore) copyOf(u *auth.User) (*auth.User, error) {
	if u == nil {
		return nil, auth.ErrNotFound
	}
	c := *u
	c.SessionHash = copyPtr(u.SessionHash)
	c.ResetHash = copyPtr(u.ResetHash)
	return &c, nil
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
