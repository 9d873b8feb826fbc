// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package httpauth

import (
	"strings"

	"github.com/gobwas/glob"
)

// exclusionRule is one compiled entry of an exclusion list. Exact
// entries compare by string equality; wildcard entries carry a compiled
// glob matcher.
type exclusionRule struct {
	exact   string
	matcher glob.Glob
}

// ExclusionList is a compiled, ordered list of paths that do not
// require authentication. Entries ending in '*' match by prefix; all
// others match exactly after trailing slashes are stripped. Rules are
// evaluated in input order and the first match wins — wildcards get no
// priority over exact entries.
type ExclusionList struct {
	rules []exclusionRule
}

// NewExclusionList compiles an exclusion list. Empty entries are
// dropped.
func NewExclusionList(excluded []string) *ExclusionList {
	l := &ExclusionList{}
	for _, entry := range excluded {
		if entry == "" {
			continue
		}
		if prefix, wildcard := strings.CutSuffix(entry, "*"); wildcard {
			// Quote the prefix so only the trailing '*' is a
			// metacharacter.
			l.rules = append(l.rules, exclusionRule{
				matcher: glob.MustCompile(glob.QuoteMeta(prefix) + "*"),
			})
		} else {
			l.rules = append(l.rules, exclusionRule{
				exact: strings.TrimRight(entry, "/"),
			})
		}
	}
	return l
}

// RequiresAuth reports whether the path needs authentication. An empty
// path always requires auth, as does an empty list.
func (l *ExclusionList) RequiresAuth(path string) bool {
	if path == "" || len(l.rules) == 0 {
		return true
	}

	trimmed := strings.TrimRight(path, "/")
	for _, rule := range l.rules {
		if rule.matcher != nil {
			if rule.matcher.Match(trimmed) {
				return false
			}
			continue
		}
		if rule.exact == trimmed {
			return false
		}
	}
	return true
}

// RequiresAuth is the one-shot form for callers without a long-lived
// compiled list.
func RequiresAuth(path string, excluded []string) bool {
	if len(excluded) == 0 {
		return true
	}
	return NewExclusionList(excluded).RequiresAuth(path)
}
