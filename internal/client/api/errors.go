package api

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnknownProvider = errors.New("unknown sso provider")
)

// ServerError carries a non-2xx backend reply. Message holds the body's own
// message field when the backend sent one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error %d", e.StatusCode)
}
