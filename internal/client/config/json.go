package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bdocctl/internal/flagx"
	"github.com/dmitrijs2005/bdocctl/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds.
type JsonConfig struct {
	UserServiceURL      string         `json:"user_service_url"`
	GeneratorServiceURL string         `json:"generator_service_url"`
	DatabaseDSN         string         `json:"database_dsn"`
	DownloadDir         string         `json:"download_dir"`
	HTTPTimeout         timex.Duration `json:"http_timeout"`
	GenerateTimeout     timex.Duration `json:"generate_timeout"`
	PollInterval        timex.Duration `json:"poll_interval"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flags. Absent flag means no JSON stage. Panics on read or
// unmarshal errors; config parsing happens before anything else runs.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.UserServiceURL != "" {
		cfg.UserServiceURL = jc.UserServiceURL
	}
	if jc.GeneratorServiceURL != "" {
		cfg.GeneratorServiceURL = jc.GeneratorServiceURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.DownloadDir != "" {
		cfg.DownloadDir = jc.DownloadDir
	}
	if jc.HTTPTimeout.Duration != 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.GenerateTimeout.Duration != 0 {
		cfg.GenerateTimeout = jc.GenerateTimeout.Duration
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
