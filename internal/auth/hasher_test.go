// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// testHashParams keep argon2 cheap in tests.
var testHashParams = auth.HashParams{
	Time:    1,
	Memory:  1024,
	Threads: 1,
	SaltLen: 16,
	KeyLen:  32,
}

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(testHashParams)

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(testHashParams)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verifies against default params", func(t *testing.T) {
		// Cost parameters come from the hash itself, so a hasher with
		// different params still verifies.
		defaultHasher := auth.NewArgon2idHasher()
		hash, err := defaultHasher.Hash("pw")
		require.NoError(t, err)

		ok, err := hasher.Verify("pw", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("malformed hash returns error not panic", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"plaintext",
			"$argon2id$v=19$m=1024",
			"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
			"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$!!!",
			"$argon2id$v=19$m=1024,t=1,p=999$c2FsdA$aGFzaA",
		} {
			ok, err := hasher.Verify("pw", bad)
			assert.False(t, ok, "hash %q", bad)
			assert.Error(t, err, "hash %q", bad)
		}
	})
}
