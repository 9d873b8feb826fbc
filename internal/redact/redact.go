// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package redact obfuscates sensitive field values in log lines.
//
// A line is a sequence of field=value pairs delimited by a separator,
// e.g. "name=bob;password=pw;ip=127.0.0.1" with separator ";". Redaction
// replaces the value of each named field while preserving the field
// name and the rest of the line. It is idempotent: redacting an
// already-redacted line with the same replacement changes nothing.
package redact

import (
	"regexp"
	"strings"
)

// Redactor replaces the values of a fixed field set. The pattern is
// compiled once; field order does not affect the result.
type Redactor struct {
	re          *regexp.Regexp
	fields      map[string]struct{}
	replacement string
	template    string
}

// New compiles a Redactor for the given fields, replacement string, and
// field separator. Returns nil if no fields are given, and a nil
// Redactor redacts nothing.
func New(fields []string, replacement, separator string) *Redactor {
	if len(fields) == 0 {
		return nil
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}

	// (^|sep)(field)=[^sep]*  — the value runs until the next
	// separator or end of line. Anchoring on the separator (or start
	// of line) keeps "password" from matching "old_password".
	pattern := "(^|" + regexp.QuoteMeta(separator) + ")" +
		"(" + strings.Join(quoted, "|") + ")=[^" + charClassQuote(separator) + "]*"

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}

	return &Redactor{
		re:     regexp.MustCompile(pattern),
		fields: set,
		// '$' in the replacement would otherwise be an expansion
		// reference.
		template:    "${1}${2}=" + strings.ReplaceAll(replacement, "$", "$$"),
		replacement: replacement,
	}
}

// Redact returns the line with every matched field value replaced.
func (r *Redactor) Redact(line string) string {
	if r == nil {
		return line
	}
	return r.re.ReplaceAllString(line, r.template)
}

// Hides reports whether the field's values are redacted. Used by the
// logging handler, where attribute keys arrive separately from their
// values.
func (r *Redactor) Hides(field string) bool {
	if r == nil {
		return false
	}
	_, ok := r.fields[field]
	return ok
}

// Replacement returns the configured replacement string.
func (r *Redactor) Replacement() string {
	if r == nil {
		return ""
	}
	return r.replacement
}

// Redact is the one-shot form of Redactor.Redact.
func Redact(fields []string, replacement, line, separator string) string {
	return New(fields, replacement, separator).Redact(line)
}

// charClassQuote escapes a separator for use inside a regexp character
// class, where QuoteMeta's escaping rules do not fully apply.
func charClassQuote(separator string) string {
	var b strings.Builder
	for _, c := range separator {
		switch c {
		case '\\', ']', '^', '-':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
