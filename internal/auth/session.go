// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionCookieName is the cookie under which collaborating HTTP layers
// carry the session token. The core never reads cookies itself.
const SessionCookieName = "session_id"

// SessionManager owns the mapping from opaque session tokens to user
// IDs. It is the sole mutator of that mapping.
type SessionManager interface {
	// Create generates a fresh unguessable token for the user and
	// records the association, replacing any prior session for that
	// user. Rejects the zero user ID.
	Create(ctx context.Context, userID ulid.ULID) (string, error)

	// Resolve exchanges a session token for the owning user ID.
	// Returns ErrNotFound for an empty or unknown token; never panics.
	Resolve(ctx context.Context, token string) (ulid.ULID, error)

	// Destroy clears the session association for the user. Destroying
	// an absent or already-cleared session is a no-op.
	Destroy(ctx context.Context, userID ulid.ULID) error
}

// StoreSessionManager is the persistent SessionManager variant: the
// session lives in the user record's session hash field, so per-user
// overwrite semantics fall out of the store's per-row atomicity.
type StoreSessionManager struct {
	users UserStore
}

// NewStoreSessionManager creates a SessionManager backed by a UserStore.
func NewStoreSessionManager(users UserStore) *StoreSessionManager {
	return &StoreSessionManager{users: users}
}

// Create generates a token and persists its hash on the user record.
func (m *StoreSessionManager) Create(ctx context.Context, userID ulid.ULID) (string, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return "", err
	}

	if err := m.users.UpdateSessionHash(ctx, userID, &hash); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session hash").
			With("user_id", userID.String()).
			Wrap(err)
	}

	return token, nil
}

// Resolve looks up the user holding the token's hash.
func (m *StoreSessionManager) Resolve(ctx context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, ErrNotFound
	}

	user, err := m.users.GetBySessionHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, ErrNotFound
		}
		return ulid.ULID{}, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get user by session hash").
			Wrap(err)
	}

	return user.ID, nil
}

// Destroy clears the user's session hash.
func (m *StoreSessionManager) Destroy(ctx context.Context, userID ulid.ULID) error {
	err := m.users.UpdateSessionHash(ctx, userID, nil)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "clear session hash").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}
