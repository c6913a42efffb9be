package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

// login starts the SSO flow: the backend URL is printed for the user to open
// in a browser. The flow continues either via the -u startup flag or the
// 'complete' command with the pasted callback URL.
func (a *App) login(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: login <google|github|outlook>")
		return
	}

	u, err := a.auth.BeginSSOLogin(args[0])
	if err != nil {
		fmt.Fprintln(a.out, color.RedString("Login failed: %s", err))
		return
	}

	fmt.Fprintln(a.out, "Open the following URL in your browser to sign in:")
	fmt.Fprintln(a.out, "  "+u)
	fmt.Fprintln(a.out, "Then run: complete <callback-url>")
}

// complete finishes the SSO flow with the callback URL the browser landed on.
func (a *App) complete(ctx context.Context, args []string) {
	var rawURL string
	if len(args) > 0 {
		rawURL = args[0]
	} else {
		var err error
		rawURL, err = GetSimpleText(a.reader, "Paste the callback URL", a.out)
		if err != nil {
			fmt.Fprintln(a.out, color.RedString("Reading input failed: %s", err))
			return
		}
	}

	if err := a.auth.CompleteSSOLogin(ctx, rawURL); err != nil {
		fmt.Fprintln(a.out, color.RedString("Login failed: %s", err))
		return
	}

	fmt.Fprintln(a.out, color.GreenString("Logged in as %s", a.auth.Identity().Email))
}

func (a *App) whoami() {
	if a.auth.Loading() {
		fmt.Fprintln(a.out, "Checking session...")
		return
	}
	id := a.auth.Identity()
	if id == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return
	}
	fmt.Fprintf(a.out, "%s <%s> via %s\n", id.Name, id.Email, id.Provider)
}
