// Package recurrence parses which occurrences of a repeating item an
// operation applies to: just this one, the whole series, or everything
// from now on.
package recurrence

import (
	"regexp"
	"strings"
)

// Scope is one of THIS, ALL, FUTURE.
type Scope string

const (
	ScopeThis   Scope = "THIS"
	ScopeAll    Scope = "ALL"
	ScopeFuture Scope = "FUTURE"
)

var thisPhrases = []string{
	"only this",
	"just today",
	"just this once",
	"this time",
}

var futurePhrases = []string{
	"starting from",
	"onward",
	"from next time",
	"from next week",
	"going forward",
}

var allPhrases = []string{
	"the whole series",
	"always",
}

// Bare "all"/"every" counts as ALL only as a whole word.
var allWordRe = regexp.MustCompile(`\b(all|every)\b`)

// Parse scans free text for a recurrence scope. First matching category
// wins: THIS, then FUTURE, then ALL. Returns false when nothing matches.
func Parse(text string) (Scope, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	if containsAny(lowered, thisPhrases) {
		return ScopeThis, true
	}
	if containsAny(lowered, futurePhrases) {
		return ScopeFuture, true
	}
	if containsAny(lowered, allPhrases) || allWordRe.MatchString(lowered) {
		return ScopeAll, true
	}
	return "", false
}

// Normalize accepts a scope name in any case ("this", "ALL", "Future")
// and returns the typed scope. Returns false for anything else.
func Normalize(value string) (Scope, bool) {
	switch Scope(strings.ToUpper(strings.TrimSpace(value))) {
	case ScopeThis:
		return ScopeThis, true
	case ScopeAll:
		return ScopeAll, true
	case ScopeFuture:
		return ScopeFuture, true
	}
	return "", false
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
