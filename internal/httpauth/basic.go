// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package httpauth provides request-adjacent helpers for the HTTP layer
// sitting in front of the authentication core: Basic-Auth credential
// extraction and the path authorization policy.
//
// All helpers here signal failure through ok-bools rather than errors.
// A missing header or a garbled token is an expected, frequent outcome,
// not a fault.
package httpauth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// basicPrefix is the literal scheme prefix of a Basic Authorization
// header. Matching is case-sensitive with exactly one space.
const basicPrefix = "Basic "

// ExtractBasic returns the base64 payload of a Basic Authorization
// header. Reports false for an empty header or a wrong prefix.
func ExtractBasic(header string) (string, bool) {
	token, found := strings.CutPrefix(header, basicPrefix)
	if !found {
		return "", false
	}
	return token, true
}

// DecodeBasic base64-decodes a Basic-Auth payload into UTF-8 text.
// Reports false on a decode failure or invalid UTF-8.
func DecodeBasic(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// SplitCredentials splits decoded Basic-Auth text on the first colon.
// Only the first colon separates; passwords may contain colons.
// Reports false when no colon is present.
func SplitCredentials(decoded string) (user, password string, ok bool) {
	user, password, ok = strings.Cut(decoded, ":")
	if !ok {
		return "", "", false
	}
	return user, password, true
}

// BasicCredentials chains ExtractBasic, DecodeBasic, and
// SplitCredentials over a raw Authorization header.
func BasicCredentials(header string) (user, password string, ok bool) {
	token, ok := ExtractBasic(header)
	if !ok {
		return "", "", false
	}
	decoded, ok := DecodeBasic(token)
	if !ok {
		return "", "", false
	}
	return SplitCredentials(decoded)
}
