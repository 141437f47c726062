package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediaoffload/internal/flagx"
	"github.com/dmitrijs2005/mediaoffload/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Only keys
// present in the file override the current values.
type JsonConfig struct {
	LocalBaseDir   *string         `json:"local_base_dir"`
	LocalBaseURL   *string         `json:"local_base_url"`
	KeyFile        *string         `json:"key_file"`
	DatabaseDSN    *string         `json:"database_dsn"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	Concurrency    *int            `json:"concurrency"`
	LogFormat      *string         `json:"log_format"`
	LogLevel       *string         `json:"log_level"`
	EnvFile        *string         `json:"env_file"`
}

// parseJson overlays the file named by -c/-config onto config. It panics if
// the file cannot be read or is not valid JSON.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.LocalBaseDir, c.LocalBaseDir)
	setString(&config.LocalBaseURL, c.LocalBaseURL)
	setString(&config.KeyFile, c.KeyFile)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.EnvFile, c.EnvFile)

	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.Concurrency != nil {
		config.Concurrency = *c.Concurrency
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
