// Package config loads runtime configuration for the media offloader.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-p string   local media base directory
//	-u string   public base URL of the local media directory
//	-k string   credential key file
//	-d string   database DSN (SQLite file or postgres:// URL)
//	-e string   S3-compatible base endpoint (optional)
//	-t int      object store request timeout (seconds)
//	-j int      parallel variant uploads/deletes
//	-f string   log format: json, text, console, zerolog
//	-l string   log level: debug, info, warn, error
//	-n string   dotenv file merged under the process environment
//
// # JSON schema
//
//	{
//	  "local_base_dir": "/var/www/html/wp-content/uploads",
//	  "local_base_url": "https://example.com/wp-content/uploads",
//	  "key_file": "secure-data/crypto.json",
//	  "database_dsn": "offloader.db",
//	  "s3_base_endpoint": "",
//	  "request_timeout": "30s",
//	  "concurrency": 4,
//	  "log_format": "json",
//	  "log_level": "info",
//	  "env_file": ".env"
//	}
//
// AWS credentials are deliberately not part of Config. They come from the
// environment (see ReadEnv) or the persisted settings record and are merged
// into an Offload value once at startup.
package config
