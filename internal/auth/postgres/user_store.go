// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package postgres implements auth.UserStore over PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// querier is the subset of pgxpool.Pool the store uses. pgxmock
// satisfies it, so unit tests run without a database.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore implements auth.UserStore using PostgreSQL. The users
// table's unique index on email is the authority for duplicate
// registrations; session and reset mutations are single-row UPDATEs, so
// the row lock serializes concurrent logins and resets per user.
type UserStore struct {
	pool querier
}

// NewUserStore creates a UserStore on the given pool.
func NewUserStore(pool querier) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, email, password_hash, session_hash, reset_hash, created_at, updated_at`

// Create stores a new user. A unique-constraint violation on email maps
// to auth.ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, session_hash, reset_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.SessionHash,
		user.ResetHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("email", user.Email).
				Wrap(auth.ErrAlreadyExists)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return s.scanUser(row, "get user by id")
}

// GetByEmail retrieves a user by exact email. Emails are stored
// case-sensitively, so this is a plain equality match.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanUser(row, "get user by email")
}

// GetBySessionHash retrieves the user holding the session token hash.
func (s *UserStore) GetBySessionHash(ctx context.Context, hash string) (*auth.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE session_hash = $1`, hash)
	return s.scanUser(row, "get user by session hash")
}

// UpdateSessionHash sets or clears the session token hash.
func (s *UserStore) UpdateSessionHash(ctx context.Context, id ulid.ULID, hash *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET session_hash = $2, updated_at = now() WHERE id = $1`,
		id.String(), hash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update session hash").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// UpdateResetHash sets or clears the reset token hash.
func (s *UserStore) UpdateResetHash(ctx context.Context, id ulid.ULID, hash *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_hash = $2, updated_at = now() WHERE id = $1`,
		id.String(), hash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update reset hash").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// ConsumeResetHash spends a reset token in one statement: the WHERE
// clause is the compare, the SET is the update, so two racing consumers
// cannot both succeed.
func (s *UserStore) ConsumeResetHash(ctx context.Context, resetHash, newPasswordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_hash = NULL, updated_at = now()
		WHERE reset_hash = $1
	`, resetHash, newPasswordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "consume reset hash").
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// scanUser reads one user row, mapping pgx.ErrNoRows to ErrNotFound.
func (s *UserStore) scanUser(row pgx.Row, operation string) (*auth.User, error) {
	var u auth.User
	var idStr string

	err := row.Scan(&idStr, &u.Email, &u.PasswordHash, &u.SessionHash, &u.ResetHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", operation).
			Wrap(err)
	}

	u.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("operation", operation).
			With("id", idStr).
			Wrap(err)
	}
	return &u, nil
}
