// Package models contains the client-side data model: the authenticated
// user's Identity and the generation request/result pair.
package models

import "strings"

// DefaultProvider is assumed when the backend omits the provider field.
const DefaultProvider = "oauth"

// Identity is the authenticated user's normalized profile record.
//
// An Identity is either fully absent (nil) or fully populated: NewIdentity
// never returns a partially filled value, so downstream code can treat a
// non-nil Identity as complete.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// NewIdentity normalizes raw profile data into an Identity. The id defaults
// to the email and the provider defaults to DefaultProvider when the backend
// omits them. Returns nil when name or email is missing; partial identities
// are never constructed.
func NewIdentity(id, name, email, provider string) *Identity {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil
	}
	if id = strings.TrimSpace(id); id == "" {
		id = email
	}
	if provider = strings.TrimSpace(provider); provider == "" {
		provider = DefaultProvider
	}
	return &Identity{ID: id, Name: name, Email: email, Provider: provider}
}

// Complete reports whether all four fields are non-empty. Snapshots loaded
// from storage go through this check before they are trusted.
func (i *Identity) Complete() bool {
	return i != nil && i.ID != "" && i.Name != "" && i.Email != "" && i.Provider != ""
}
