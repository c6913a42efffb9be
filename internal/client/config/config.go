package config

import "time"

// Config holds runtime settings for the bdocctl client.
//
// Fields:
//   - UserServiceURL: base URL of the auth/user service.
//   - GeneratorServiceURL: base URL of the document generator service.
//   - DatabaseDSN: path of the local SQLite database holding the session slot.
//   - DownloadDir: directory generated documents are written into.
//   - CallbackURL: optional OAuth callback URL to complete on startup
//     (the equivalent of landing on the redirect page).
//   - HTTPTimeout: cap on each individual HTTP call.
//   - GenerateTimeout: overall bound on one generation cycle, queued
//     polling included. Zero disables the bound.
//   - PollInterval: delay between task-status polls for queued generations.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	UserServiceURL      string
	GeneratorServiceURL string
	DatabaseDSN         string
	DownloadDir         string
	CallbackURL         string
	HTTPTimeout         time.Duration
	GenerateTimeout     time.Duration
	PollInterval        time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.UserServiceURL = "http://127.0.0.1:8001"
	c.GeneratorServiceURL = "http://127.0.0.1:8002"
	c.DatabaseDSN = "bdoc.db"
	c.DownloadDir = "downloads"
	c.HTTPTimeout = 30 * time.Second
	c.GenerateTimeout = 5 * time.Minute
	c.PollInterval = 2 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (including a .env file), a JSON file and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
