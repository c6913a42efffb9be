// Package delivery turns an in-memory generation result into a file on the
// user's machine. This is the client-side "download": bytes are synthesized
// locally and written under the downloads directory, no server endpoint is
// involved.
package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/bdocctl/internal/client/models"
)

// Deliverer hands a settled result to the user. Implementations must be
// replayable: delivering the same result twice produces the same file again.
type Deliverer interface {
	Deliver(result *models.GenerationResult) (string, error)
}

// FileDeliverer writes results into a directory, creating it on first use.
type FileDeliverer struct {
	dir string
}

func NewFileDeliverer(dir string) *FileDeliverer {
	return &FileDeliverer{dir: dir}
}

// Deliver writes the result to <dir>/<fileName> and returns the written
// path. When the backend returned no content payload, a textual summary is
// rendered instead.
func (d *FileDeliverer) Deliver(result *models.GenerationResult) (string, error) {
	if err := os.MkdirAll(d.dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", d.dir, err)
	}

	content := result.Content
	if content == "" {
		content = RenderSummary(result)
	}

	path := filepath.Join(d.dir, filepath.Base(result.FileName))
	if err := os.WriteFile(path, []byte(content), 0o660); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// RenderSummary produces a readable report for results that arrive without
// a content payload.
func RenderSummary(result *models.GenerationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business Document Report\n")
	fmt.Fprintf(&b, "========================\n\n")
	fmt.Fprintf(&b, "Document ID:     %s\n", result.DocumentID)
	fmt.Fprintf(&b, "File name:       %s\n", result.FileName)
	fmt.Fprintf(&b, "Business domain: %s\n", result.BusinessDomain)
	fmt.Fprintf(&b, "Generated at:    %s\n", result.GeneratedAt.Format(time.RFC3339))
	if result.Message != "" {
		fmt.Fprintf(&b, "Message:         %s\n", result.Message)
	}
	if result.DownloadURL != "" {
		fmt.Fprintf(&b, "Download URL:    %s\n", result.DownloadURL)
	}
	fmt.Fprintf(&b, "\nSource query:\n%s\n", result.SQLQuery)
	return b.String()
}
