package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/bdocctl/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the auth/user service
//	-g string   base URL of the generator service
//	-d string   path of the local client database
//	-o string   download directory
//	-u string   OAuth callback URL to complete on startup
//	-l string   log level
//
// Only the flags listed here are parsed; other arguments are filtered out
// via flagx.FilterArgs so config stages do not interfere with each other.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-o", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.UserServiceURL, "a", cfg.UserServiceURL, "auth/user service base URL")
	fs.StringVar(&cfg.GeneratorServiceURL, "g", cfg.GeneratorServiceURL, "generator service base URL")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local client database path")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.CallbackURL, "u", cfg.CallbackURL, "OAuth callback URL to complete on startup")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
