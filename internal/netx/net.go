// Package netx holds small raw-HTTP helpers that sit outside the API client,
// e.g. fetching a generated artifact from the URL the backend hands out.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchArtifact downloads the document at url and returns its bytes.
// The URL is backend-provided (result downloadUrl) and may point at a host
// other than the API services, so no cookies or credentials are attached.
func FetchArtifact(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("artifact download failed: %s; body: %s", resp.Status, string(b))
	}

	return io.ReadAll(resp.Body)
}
