package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

func (a *App) prompt() string {
	if id := a.auth.Identity(); id != nil {
		return fmt.Sprintf("bdoc (%s) > ", id.Email)
	}
	return "bdoc > "
}

// Root runs the command loop until exit or EOF.
func (a *App) Root(ctx context.Context) {
	if IsInteractive() {
		fmt.Fprintln(a.out, "BDoc CLI (type 'help' for commands)")
	}

	scanner := bufio.NewScanner(a.in)

	for {
		fmt.Fprint(a.out, a.prompt())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if a.dispatch(ctx, parts[0], parts[1:]) {
			return
		}
	}
}

// dispatch executes one command. Returns true when the loop should exit.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "help":
		a.help()
	case "login":
		a.login(args)
	case "complete":
		a.complete(ctx, args)
	case "whoami":
		a.whoami()
	case "logout":
		a.auth.Logout(ctx)
		fmt.Fprintln(a.out, "Logged out.")
	case "generate":
		a.generate(ctx)
	case "redownload":
		a.redownload()
	case "new":
		a.newQuery()
	case "domains":
		a.domains(ctx)
	case "fetch":
		a.fetch(ctx)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	return false
}

func (a *App) help() {
	if a.auth.IsAuthenticated() {
		fmt.Fprintln(a.out, "Available commands: generate, redownload, fetch, new, domains, whoami, logout, exit")
	} else {
		fmt.Fprintln(a.out, "Available commands: login <provider>, complete <callback-url>, domains, whoami, exit")
	}
}
