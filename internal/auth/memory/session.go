// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// SessionManager implements auth.SessionManager over process-local
// maps. Like the store-backed variant it keeps one live session per
// user: Create replaces any prior token for that user.
type SessionManager struct {
	mu      sync.RWMutex
	byToken map[string]ulid.ULID // token hash -> user
	byUser  map[ulid.ULID]string // user -> token hash
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		byToken: make(map[string]ulid.ULID),
		byUser:  make(map[ulid.ULID]string),
	}
}

// Create generates a fresh token for the user, invalidating any prior
// session for the same user.
func (m *SessionManager) Create(_ context.Context, userID ulid.ULID) (string, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	token, hash, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.byUser[userID]; ok {
		delete(m.byToken, prior)
	}
	m.byToken[hash] = userID
	m.byUser[userID] = hash

	return token, nil
}

// Resolve exchanges a token for the owning user ID.
func (m *SessionManager) Resolve(_ context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, auth.ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.byToken[auth.HashToken(token)]
	if !ok {
		return ulid.ULID{}, auth.ErrNotFound
	}
	return userID, nil
}

// Destroy clears the user's session. A missing session is a no-op.
func (m *SessionManager) Destroy(_ context.Context, userID ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hash, ok := m.byUser[userID]; ok {
		delete(m.byToken, hash)
		delete(m.byUser, userID)
	}
	return nil
}
