// Package api defines the backend-facing client used by the controllers:
// a transport-agnostic Client interface, its HTTP implementation, and the
// sentinel errors callers match with errors.Is.
package api

import (
	"context"

	"github.com/dmitrijs2005/bdocctl/internal/client/models"
)

// AuthPayload is the profile shape returned by the callback exchange and the
// status probe. id and provider are optional; the Identity normalization
// fills them in.
type AuthPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// GenerateResponse is the generator service's answer to a submission.
// Two shapes arrive through it: a finished document (documentId/fileName/...)
// or a queue ticket (task_id/status) that must be polled via TaskStatus.
type GenerateResponse struct {
	DocumentID  string `json:"documentId"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	GeneratedAt string `json:"generatedAt"`
	DownloadURL string `json:"downloadUrl"`
	Message     string `json:"message"`
	Content     string `json:"content"`
	TaskID      string `json:"task_id"`
	Status      string `json:"status"`
}

// Queued reports whether the response is a queue ticket rather than a
// finished document.
func (r *GenerateResponse) Queued() bool {
	return r.TaskID != "" && r.DocumentID == "" && r.Content == ""
}

// TaskStatusResponse mirrors the generator's task polling endpoint.
type TaskStatusResponse struct {
	TaskID string            `json:"task_id"`
	Status string            `json:"status"`
	Result *GenerateResponse `json:"result"`
	Error  string            `json:"error"`
}

// Client defines the backend operations the controllers depend on.
//
// Contract:
//   - ExchangeCallback: redeem an OAuth authorization code for a session.
//   - Status: probe whether the current session is authenticated;
//     returns ErrUnauthorized on a 401.
//   - Logout: terminate the backend session (best-effort for callers).
//   - Generate: submit a generation request.
//   - TaskStatus: poll a queued generation task.
//   - Domains: list the business domains the backend supports.
//   - LoginURL: map a provider name to the fixed SSO entry URL.
//   - SessionCookie/SetSessionCookie: expose the session cookie so it can be
//     persisted across process runs.
//
// All methods must honor context cancellation/timeouts.
type Client interface {
	ExchangeCallback(ctx context.Context, code, state string) (*AuthPayload, error)
	Status(ctx context.Context) (*AuthPayload, error)
	Logout(ctx context.Context) error
	Generate(ctx context.Context, req models.GenerationRequest) (*GenerateResponse, error)
	TaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	Domains(ctx context.Context) ([]string, error)
	LoginURL(provider string) (string, error)
	SessionCookie() string
	SetSessionCookie(value string)
	Close() error
}
