package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mediaoffload/internal/flagx"
)

var knownFlags = []string{"-p", "-u", "-k", "-d", "-e", "-t", "-j", "-f", "-l", "-n"}

// parseFlags overlays the short flags listed in the package doc onto config.
// Unknown arguments are ignored so that other packages can own them.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("offloader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.LocalBaseDir, "p", config.LocalBaseDir, "local media base directory")
	fs.StringVar(&config.LocalBaseURL, "u", config.LocalBaseURL, "local media base URL")
	fs.StringVar(&config.KeyFile, "k", config.KeyFile, "credential key file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	timeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "object store request timeout (in seconds)")
	fs.IntVar(&config.Concurrency, "j", config.Concurrency, "parallel variant operations")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.EnvFile, "n", config.EnvFile, "dotenv file")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*timeout) * time.Second
}
