// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package auth provides the session-and-credential authentication core.
//
// # Domain Types
//
// User is the stored account record. Construct it with NewUser, which
// validates the email and password hash; direct struct initialization
// bypasses validation and may create invalid state. Repository
// implementations receive pre-validated records.
//
// # Collaborators
//
// UserStore is the persistence collaborator. It is the authority for
// email uniqueness: Create must return ErrAlreadyExists on a duplicate,
// and ConsumeResetHash must be an atomic compare-and-update so a reset
// token can be spent exactly once.
//
// SessionManager owns the session-token-to-user mapping. Two
// implementations ship: memory.SessionManager (mutex-protected maps)
// and StoreSessionManager (the mapping lives on the user record).
// Both enforce one live session per user; creating a session replaces
// any prior one.
//
// # Service
//
// Service composes the hasher, the session manager, and the user store
// into registration, login, logout, current-user, and password-reset
// workflows. Expected failures surface as the sentinel errors in
// errors.go; anything else is an infrastructure fault.
package auth
