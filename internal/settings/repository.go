package settings

import (
	"context"

	"github.com/dmitrijs2005/mediaoffload/internal/dbx"
)

// Repository stores the settings record as key/value pairs. Get returns
// ("", nil) for a key that was never set.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}

// RepositoryFactory binds a Repository to a connection or transaction.
type RepositoryFactory func(db dbx.DBTX) Repository

func SQLiteFactory(db dbx.DBTX) Repository   { return NewSQLiteRepository(db) }
func PostgresFactory(db dbx.DBTX) Repository { return NewPostgresRepository(db) }
