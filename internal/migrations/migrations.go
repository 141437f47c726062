// Package migrations embeds the goose migrations for every supported
// database dialect. Each dialect lives in its own directory.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	DirSQLite   = "sqlite"
	DirPostgres = "postgres"
)
