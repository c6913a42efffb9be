package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/bdocctl/internal/client/models"
	"github.com/dmitrijs2005/bdocctl/internal/client/services"
	"github.com/dmitrijs2005/bdocctl/internal/netx"
)

// generate drives one submission. The authentication gate lives here, at
// the shell boundary: the controller assumes callers checked it.
func (a *App) generate(ctx context.Context) {
	if a.auth.Loading() {
		fmt.Fprintln(a.out, "Still checking your session, try again in a moment.")
		return
	}
	if !a.auth.IsAuthenticated() {
		fmt.Fprintln(a.out, color.RedString("Please log in first."))
		return
	}
	if a.generation.State() == services.StateSubmitting {
		fmt.Fprintln(a.out, "A generation is already running.")
		return
	}

	query, err := GetMultiline(a.reader, "Enter the SQL query", a.out)
	if err != nil {
		fmt.Fprintln(a.out, color.RedString("Reading input failed: %s", err))
		return
	}

	domain, err := GetSimpleText(a.reader, "Business domain ("+strings.Join(models.BusinessDomains, ", ")+")", a.out)
	if err != nil {
		fmt.Fprintln(a.out, color.RedString("Reading input failed: %s", err))
		return
	}

	req := models.GenerationRequest{SQLQuery: query, BusinessDomain: strings.ToLower(domain)}
	if err := req.Validate(); err != nil {
		fmt.Fprintln(a.out, color.RedString("Invalid request: %s", err))
		return
	}

	fmt.Fprintln(a.out, "Generating document...")

	result, err := a.generation.Submit(ctx, req)
	if err != nil {
		if msg := a.generation.ErrorMessage(); msg != "" {
			fmt.Fprintln(a.out, color.RedString(msg))
		} else {
			fmt.Fprintln(a.out, color.RedString("Generation failed: %s", err))
		}
		return
	}

	fmt.Fprintln(a.out, color.GreenString("Document %s generated: %s", result.DocumentID, filepath.Join(a.config.DownloadDir, result.FileName)))
}

// redownload replays delivery of the cached result; no backend call.
func (a *App) redownload() {
	path, err := a.generation.Redownload()
	if err != nil {
		fmt.Fprintln(a.out, color.RedString("Redownload failed: %s", err))
		return
	}
	fmt.Fprintln(a.out, color.GreenString("Saved %s", path))
}

func (a *App) newQuery() {
	if err := a.generation.NewQuery(); err != nil {
		fmt.Fprintln(a.out, color.RedString("Cannot start a new query: %s", err))
		return
	}
	fmt.Fprintln(a.out, "Ready for a new query.")
}

// domains lists the business domains the backend supports, falling back to
// the built-in set when the backend cannot be reached.
func (a *App) domains(ctx context.Context) {
	names, err := a.apiClient.Domains(ctx)
	if err != nil || len(names) == 0 {
		names = models.BusinessDomains
	}
	fmt.Fprintln(a.out, "Supported business domains:", strings.Join(names, ", "))
}

// fetch retrieves the remote artifact referenced by the cached result's
// download URL. Separate from the submit/redownload cycle.
func (a *App) fetch(ctx context.Context) {
	result := a.generation.Result()
	if result == nil {
		fmt.Fprintln(a.out, "Nothing to fetch, generate a document first.")
		return
	}
	if result.DownloadURL == "" {
		fmt.Fprintln(a.out, "The last result has no download URL.")
		return
	}

	data, err := netx.FetchArtifact(ctx, result.DownloadURL)
	if err != nil {
		fmt.Fprintln(a.out, color.RedString("Fetch failed: %s", err))
		return
	}

	if err := os.MkdirAll(a.config.DownloadDir, 0o770); err != nil {
		fmt.Fprintln(a.out, color.RedString("Fetch failed: %s", err))
		return
	}
	path := filepath.Join(a.config.DownloadDir, filepath.Base(result.FileName))
	if err := os.WriteFile(path, data, 0o660); err != nil {
		fmt.Fprintln(a.out, color.RedString("Fetch failed: %s", err))
		return
	}
	fmt.Fprintln(a.out, color.GreenString("Saved %s", path))
}
