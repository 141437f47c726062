package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Env is a snapshot of environment variables relevant to the offloader.
type Env map[string]string

// ReadEnv merges an optional dotenv file with the process environment.
// Process variables win over the file; a missing file is not an error.
// An empty file name skips the file entirely.
func ReadEnv(file string, keys []string) (Env, error) {
	env := Env{}

	if file != "" {
		fromFile, err := godotenv.Read(file)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			for _, k := range keys {
				if v := fromFile[k]; v != "" {
					env[k] = v
				}
			}
		}
	}

	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			env[k] = v
		}
	}

	return env, nil
}

// Get returns the value for key, or "" when unset.
func (e Env) Get(key string) string {
	return e[key]
}
