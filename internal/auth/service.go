// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MetricsRecorder receives authentication outcomes for observability.
// internal/observability provides the Prometheus-backed implementation.
type MetricsRecorder interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordSessionResolution(outcome string)
	RecordPasswordReset(outcome string)
}

// Outcome labels reported to the MetricsRecorder.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// NopRecorder discards all outcomes.
type NopRecorder struct{}

func (NopRecorder) RecordRegistration(string)      {}
func (NopRecorder) RecordLogin(string)             {}
func (NopRecorder) RecordSessionResolution(string) {}
func (NopRecorder) RecordPasswordReset(string)     {}

// dummyPasswordHash is verified when a login targets an unknown email,
// so response time does not reveal whether the email exists. It is not
// a real credential and matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service composes the hasher, session manager, and user store into the
// registration, login, logout, and password-reset workflows.
type Service struct {
	users    UserStore
	sessions SessionManager
	hasher   PasswordHasher
	logger   *slog.Logger
	metrics  MetricsRecorder
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the outcome recorder. Defaults to NopRecorder.
func WithMetrics(metrics MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates a Service. All three collaborators are required.
func NewService(users UserStore, sessions SessionManager, hasher PasswordHasher, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   slog.Default(),
		metrics:  NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. The plaintext password is hashed
// before it reaches the store and is never persisted. Returns
// ErrAlreadyExists (wrapped) if the email is taken; the store's
// uniqueness constraint decides races between concurrent registrations.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration(OutcomeRejected)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		s.metrics.RecordRegistration(OutcomeRejected)
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.metrics.RecordRegistration(OutcomeRejected)
			return nil, oops.Code("AUTH_ALREADY_EXISTS").
				With("email", email).
				Wrap(ErrAlreadyExists)
		}
		s.metrics.RecordRegistration(OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	s.metrics.RecordRegistration(OutcomeOK)
	return user, nil
}

// Login verifies the credentials and creates a session, returning the
// plaintext session token. Failure is always ErrInvalidCredentials
// (wrapped); unknown email and wrong password are indistinguishable,
// and a dummy verification keeps the timing consistent.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			s.metrics.RecordLogin(OutcomeError)
			return "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		s.metrics.RecordLogin(OutcomeError)
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		s.metrics.RecordLogin(OutcomeRejected)
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLogin(OutcomeError)
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	s.metrics.RecordLogin(OutcomeOK)
	return token, nil
}

// ValidLogin reports whether the credentials are correct without
// creating a session. Infrastructure faults read as false.
func (s *Service) ValidLogin(ctx context.Context, email, password string) bool {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Burn a verification anyway so timing stays flat.
		_, _ = s.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // timing only
		return false
	}
	valid, err := s.hasher.Verify(password, user.PasswordHash)
	return err == nil && valid
}

// CurrentUser resolves a session token to the full user record.
// Any expected failure along the way yields ErrNotFound.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordSessionResolution(OutcomeRejected)
			return nil, ErrNotFound
		}
		s.metrics.RecordSessionResolution(OutcomeError)
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "resolve session").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordSessionResolution(OutcomeRejected)
			return nil, ErrNotFound
		}
		s.metrics.RecordSessionResolution(OutcomeError)
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.metrics.RecordSessionResolution(OutcomeOK)
	return user, nil
}

// Logout destroys the user's session. Returns ErrNotFound (wrapped) if
// no such user exists; logging out an already logged-out user succeeds.
func (s *Service) Logout(ctx context.Context, userID ulid.ULID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_USER_NOT_FOUND").
				With("user_id", userID.String()).
				Wrap(ErrNotFound)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	if err := s.sessions.Destroy(ctx, userID); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "destroy session").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", userID.String())
	return nil
}

// RequestPasswordReset issues a single-use reset token for the account,
// overwriting any previously issued token. Returns ErrNotFound
// (wrapped) for an unknown email. Delivering the token is the caller's
// job.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordPasswordReset(OutcomeRejected)
			return "", oops.Code("AUTH_USER_NOT_FOUND").Wrap(ErrNotFound)
		}
		s.metrics.RecordPasswordReset(OutcomeError)
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, hash, err := GenerateToken()
	if err != nil {
		s.metrics.RecordPasswordReset(OutcomeError)
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	if err := s.users.UpdateResetHash(ctx, user.ID, &hash); err != nil {
		s.metrics.RecordPasswordReset(OutcomeError)
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "persist reset hash").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	return token, nil
}

// UpdatePassword spends a reset token, replacing the account's password
// hash and clearing the token in one atomic store operation. Returns
// ErrInvalidToken (wrapped) for an unknown or already-spent token.
func (s *Service) UpdatePassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		s.metrics.RecordPasswordReset(OutcomeRejected)
		return oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.metrics.RecordPasswordReset(OutcomeRejected)
		return oops.Code("AUTH_UPDATE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.ConsumeResetHash(ctx, HashToken(token), newHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.RecordPasswordReset(OutcomeRejected)
			return oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
		}
		s.metrics.RecordPasswordReset(OutcomeError)
		return oops.Code("AUTH_UPDATE_PASSWORD_FAILED").
			With("operation", "consume reset hash").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password updated via reset token")
	s.metrics.RecordPasswordReset(OutcomeOK)
	return nil
}
