// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User is a stored account record. SessionHash and ResetHash hold the
// SHA-256 of the live session and reset tokens; the plaintext tokens
// exist only in the hands of the caller. Both are nil when no token is
// live, and each is overwritten (never appended) on regeneration.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	SessionHash  *string
	ResetHash    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User record with a fresh ID.
func NewUser(email, passwordHash string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateEmail performs a shallow shape check. Emails are stored
// case-sensitively; no normalization happens here.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return oops.Code("USER_INVALID_EMAIL").
			With("email", email).
			Errorf("email must contain a local part and a domain")
	}
	return nil
}

// UserStore is the persistence collaborator. Implementations must
// enforce email uniqueness on Create and serialize mutations per row;
// the core relies on those guarantees instead of its own locking.
type UserStore interface {
	// Create stores a new user. Returns ErrAlreadyExists if the email
	// is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetBySessionHash retrieves the user holding the given session
	// token hash.
	GetBySessionHash(ctx context.Context, hash string) (*User, error)

	// UpdateSessionHash sets or clears (nil) the session token hash.
	// Returns ErrNotFound if the user does not exist.
	UpdateSessionHash(ctx context.Context, id ulid.ULID, hash *string) error

	// UpdateResetHash sets or clears (nil) the reset token hash.
	UpdateResetHash(ctx context.Context, id ulid.ULID, hash *string) error

	// ConsumeResetHash atomically replaces the password hash of the
	// user holding resetHash and clears the reset hash, spending the
	// token. Returns ErrNotFound when no user holds resetHash, which
	// covers both unknown and already-spent tokens.
	ConsumeResetHash(ctx context.Context, resetHash, newPasswordHash string) error
}
