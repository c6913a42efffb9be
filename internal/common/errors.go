// Package common defines shared sentinel errors used across the bdocctl
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Request validation errors (checked before any network call).
	ErrEmptyQuery    = errors.New("sql query is empty")
	ErrInvalidDomain = errors.New("unsupported business domain")

	// Controller-level flow errors.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRequestInFlight  = errors.New("generation request already in flight")
	ErrNoResult         = errors.New("no generation result available")
)
