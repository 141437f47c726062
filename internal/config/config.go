package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds process-level settings for the offloader.
type Config struct {
	LocalBaseDir   string
	LocalBaseURL   string
	KeyFile        string
	DatabaseDSN    string
	S3BaseEndpoint string
	RequestTimeout time.Duration
	Concurrency    int
	LogFormat      string
	LogLevel       string
	EnvFile        string
}

// LoadDefaults populates Config with values matching a stock WordPress
// install served from localhost.
func (c *Config) LoadDefaults() {
	c.LocalBaseDir = "/var/www/html/wp-content/uploads"
	c.LocalBaseURL = "http://localhost/wp-content/uploads"
	c.KeyFile = "secure-data/crypto.json"
	c.DatabaseDSN = "offloader.db"
	c.S3BaseEndpoint = ""
	c.RequestTimeout = 30 * time.Second
	c.Concurrency = 4
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.EnvFile = ".env"
}

// LoadConfig builds a Config from defaults, then the optional JSON file,
// then flags found in args (normally os.Args[1:]). It panics on an
// unreadable JSON file or malformed flags.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.LocalBaseDir != "" {
		if abs, err := filepath.Abs(c.LocalBaseDir); err == nil {
			c.LocalBaseDir = abs
		}
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
}

// Args returns the process arguments without the program name.
func Args() []string {
	if len(os.Args) < 2 {
		return nil
	}
	return os.Args[1:]
}
