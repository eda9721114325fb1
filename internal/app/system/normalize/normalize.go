// internal/app/system/normalize/normalize.go

// Package normalize provides canonicalization helpers for user-supplied
// values. Email is the identity of record across the application, so every
// comparison site (ownership checks, share-entry matches, invite lookups,
// login) must run input through Email before comparing or persisting.
package normalize

import "strings"

// Email lowercases and trims an email address. An all-whitespace input
// normalizes to the empty string.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// ShareRole lowercases and trims a share role value ("editor"/"viewer").
// Validation against the allowed set is the caller's job.
func ShareRole(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Plan lowercases and trims a plan tier value ("free"/"paid").
func Plan(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
