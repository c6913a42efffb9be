// Package cli is the presentation shell of the bdocctl client: a small REPL
// that renders whatever state the controllers expose and forwards user
// intents into them. No session or generation logic lives here.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/bdocctl/internal/client/api"
	"github.com/dmitrijs2005/bdocctl/internal/client/config"
	"github.com/dmitrijs2005/bdocctl/internal/client/delivery"
	"github.com/dmitrijs2005/bdocctl/internal/client/repositories/session"
	"github.com/dmitrijs2005/bdocctl/internal/client/services"
	"github.com/dmitrijs2005/bdocctl/internal/logging"
)

type App struct {
	config     *config.Config
	db         *sql.DB
	apiClient  api.Client
	auth       *services.AuthController
	generation *services.GenerationController
	log        logging.Logger
	reader     *bufio.Reader
	in         io.Reader
	out        io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewDefault(parseLevel(cfg.LogLevel))

	db, err := session.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	apiClient, err := api.NewHTTPClient(cfg.UserServiceURL, cfg.GeneratorServiceURL, cfg.HTTPTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := session.NewSQLiteStore(db)
	deliverer := delivery.NewFileDeliverer(cfg.DownloadDir)

	return &App{
		config:     cfg,
		db:         db,
		apiClient:  apiClient,
		auth:       services.NewAuthController(apiClient, store, log.With("component", "auth")),
		generation: services.NewGenerationController(apiClient, deliverer, log.With("component", "generation"), cfg.PollInterval, cfg.GenerateTimeout),
		log:        log,
		reader:     bufio.NewReader(os.Stdin),
		in:         os.Stdin,
		out:        os.Stdout,
	}, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Run executes the startup session reconciliation and then hands control to
// the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.auth.Init(ctx, a.config.CallbackURL)
	a.Root(ctx)
}

func (a *App) Close() {
	_ = a.apiClient.Close()
	_ = a.db.Close()
}
