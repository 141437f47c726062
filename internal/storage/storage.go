// Package storage opens the library database, applies migrations and wires
// the repositories for the detected dialect.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaoffload/internal/dbx"
	"github.com/dmitrijs2005/mediaoffload/internal/media"
	"github.com/dmitrijs2005/mediaoffload/internal/migrations"
	"github.com/dmitrijs2005/mediaoffload/internal/settings"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect describes how to reach one database engine.
type Dialect struct {
	Driver        string
	Goose         string
	MigrationsDir string
	Settings      settings.RepositoryFactory
	Media         func(db *sql.DB) media.Repository
}

var (
	SQLite = Dialect{
		Driver:        "sqlite",
		Goose:         "sqlite3",
		MigrationsDir: migrations.DirSQLite,
		Settings:      settings.SQLiteFactory,
		Media:         func(db *sql.DB) media.Repository { return media.NewSQLiteRepository(db) },
	}
	Postgres = Dialect{
		Driver:        "pgx",
		Goose:         "postgres",
		MigrationsDir: migrations.DirPostgres,
		Settings:      settings.PostgresFactory,
		Media:         func(db *sql.DB) media.Repository { return media.NewPostgresRepository(db) },
	}
)

// DetectDialect picks Postgres for postgres:// and postgresql:// DSNs and
// SQLite for everything else.
func DetectDialect(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

type Repositories struct {
	DB       *sql.DB
	Settings settings.RepositoryFactory
	Media    media.Repository
}

// Close releases the underlying connection pool.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(d.Goose); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, d.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Open connects to dsn, migrates the schema and returns the repositories.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	d := DetectDialect(dsn)

	db, err := dbx.Connect(ctx, d.Driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Settings: d.Settings,
		Media:    d.Media(db),
	}, nil
}
