// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
)

func testUser() *auth.User {
	now := time.Now()
	return &auth.User{
		ID:           ulid.Make(),
		Email:        "bob@example.com",
		PasswordHash: "$argon2id$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserStore_Create(t *testing.T) {
	user := testUser()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.PasswordHash,
						pgxmock.AnyArg(), pgxmock.AnyArg(), user.CreatedAt, user.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email maps to already exists",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.PasswordHash,
						pgxmock.AnyArg(), pgxmock.AnyArg(), user.CreatedAt, user.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: auth.ErrAlreadyExists,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.PasswordHash,
						pgxmock.AnyArg(), pgxmock.AnyArg(), user.CreatedAt, user.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store := NewUserStore(mock)
			err = store.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func userRows(u *auth.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
	}).AddRow(u.ID.String(), u.Email, u.PasswordHash, u.SessionHash, u.ResetHash, u.CreatedAt, u.UpdatedAt)
}

func TestUserStore_GetByID(t *testing.T) {
	user := testUser()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(user.ID.String()).
					WillReturnRows(userRows(user))
			},
		},
		{
			name: "absent maps to not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(user.ID.String()).
					WillReturnRows(pgxmock.NewRows([]string{
						"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
					}))
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name: "corrupt stored id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
				}).AddRow("not-a-ulid", user.Email, user.PasswordHash, nil, nil, user.CreatedAt, user.UpdatedAt)
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(user.ID.String()).
					WillReturnRows(rows)
			},
			errMsg: "not-a-ulid",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(user.ID.String()).
					WillReturnError(errors.New("timeout"))
			},
			errMsg: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store := NewUserStore(mock)
			got, err := store.GetByID(context.Background(), user.ID)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, user.Email, got.Email)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserStore_GetByEmail(t *testing.T) {
	user := testUser()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs(user.Email).
			WillReturnRows(userRows(user))

		store := NewUserStore(mock)
		got, err := store.GetByEmail(context.Background(), user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("absent maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
			}))

		store := NewUserStore(mock)
		_, err = store.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestUserStore_GetBySessionHash(t *testing.T) {
	user := testUser()
	hash := auth.HashToken("session-token")
	user.SessionHash = &hash

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE session_hash = \$1`).
			WithArgs(hash).
			WillReturnRows(userRows(user))

		store := NewUserStore(mock)
		got, err := store.GetBySessionHash(context.Background(), hash)
		require.NoError(t, err)
		require.NotNil(t, got.SessionHash)
		assert.Equal(t, hash, *got.SessionHash)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("absent maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE session_hash = \$1`).
			WithArgs(hash).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
			}))

		store := NewUserStore(mock)
		_, err = store.GetBySessionHash(context.Background(), hash)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestUserStore_UpdateSessionHash(t *testing.T) {
	id := ulid.Make()
	hash := auth.HashToken("session-token")

	tests := []struct {
		name      string
		hash      *string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "set hash",
			hash: &hash,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET session_hash = \$2`).
					WithArgs(id.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "clear hash",
			hash: nil,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET session_hash = \$2`).
					WithArgs(id.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "unknown user maps to not found",
			hash: &hash,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET session_hash = \$2`).
					WithArgs(id.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name: "database error",
			hash: &hash,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET session_hash = \$2`).
					WithArgs(id.String(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection lost"))
			},
			errMsg: "connection lost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store := NewUserStore(mock)
			err = store.UpdateSessionHash(context.Background(), id, tt.hash)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserStore_UpdateResetHash(t *testing.T) {
	id := ulid.Make()
	hash := auth.HashToken("reset-token")

	t.Run("set hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET reset_hash = \$2`).
			WithArgs(id.String(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		store := NewUserStore(mock)
		require.NoError(t, store.UpdateResetHash(context.Background(), id, &hash))

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET reset_hash = \$2`).
			WithArgs(id.String(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		store := NewUserStore(mock)
		assert.ErrorIs(t, store.UpdateResetHash(context.Background(), id, &hash), auth.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestUserStore_ConsumeResetHash(t *testing.T) {
	hash := auth.HashToken("reset-token")

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "token spent",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2, reset_hash = NULL`).
					WithArgs(hash, "new-hash").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "unknown or spent token maps to not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2, reset_hash = NULL`).
					WithArgs(hash, "new-hash").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2, reset_hash = NULL`).
					WithArgs(hash, "new-hash").
					WillReturnError(errors.New("disk full"))
			},
			errMsg: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store := NewUserStore(mock)
			err = store.ConsumeResetHash(context.Background(), hash, "new-hash")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

// The mock pool must keep satisfying the store's querier contract.
func TestUserStoreInterface(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	var _ auth.UserStore = NewUserStore(mock)
}
