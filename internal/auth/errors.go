// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import "errors"

// Sentinel errors forming the authentication failure taxonomy. Callers
// match them with errors.Is; the oops wrappers added by Service carry
// diagnostic context without disturbing the chain.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when registering an email that is
	// already taken. The user store's uniqueness constraint is the
	// authority; concurrent registrations race safely against it.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials is returned on a failed login. It does not
	// distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a password-reset token is
	// unknown or has already been spent.
	ErrInvalidToken = errors.New("invalid token")
)
