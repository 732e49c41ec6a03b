// Package scope parses, serialises and compares Live Connect scope lists.
package scope

import "strings"

// Well known scopes.
const (
	SignIn        = "wl.signin"
	Basic         = "wl.basic"
	OfflineAccess = "wl.offline_access"
	Emails        = "wl.emails"
)

// Serialize joins scopes with a single space. Order is preserved.
func Serialize(scopes []string) string {
	if len(scopes) == 0 {
		return ""
	}
	return strings.Join(scopes, " ")
}

// Parse splits s on spaces or commas, discarding empty entries.
func Parse(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
	scopes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			scopes = append(scopes, f)
		}
	}
	return scopes
}

// IsSubsetOf reports whether every requested scope appears in granted.
// Comparison is case-sensitive. A nil or empty requested list is always a subset.
func IsSubsetOf(requested, granted []string) bool {
	if len(requested) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	for _, r := range requested {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

// Normalize trims entries and removes empties and duplicates, keeping first-seen order.
func Normalize(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IsBaseline reports whether scopes is exactly the sign-in scope.
func IsBaseline(scopes []string) bool {
	n := Normalize(scopes)
	return len(n) == 1 && n[0] == SignIn
}
