package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment,
// loading a .env file first if one exists in the working directory.
// A missing .env file is not an error.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("BDOC_USER_SERVICE_URL"); v != "" {
		cfg.UserServiceURL = v
	}
	if v := os.Getenv("BDOC_GENERATOR_SERVICE_URL"); v != "" {
		cfg.GeneratorServiceURL = v
	}
	if v := os.Getenv("BDOC_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("BDOC_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("BDOC_CALLBACK_URL"); v != "" {
		cfg.CallbackURL = v
	}
	if v := os.Getenv("BDOC_GENERATE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GenerateTimeout = d
		}
	}
	if v := os.Getenv("BDOC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
