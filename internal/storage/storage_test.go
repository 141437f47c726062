package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/mediaoffload/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, "pgx", DetectDialect("postgres://u:p@db:5432/media").Driver)
	assert.Equal(t, "pgx", DetectDialect("PostgreSQL://db/media").Driver)
	assert.Equal(t, "sqlite", DetectDialect("offloader.db").Driver)
	assert.Equal(t, "sqlite", DetectDialect("file:media.db?cache=shared").Driver)
	assert.Equal(t, "sqlite3", DetectDialect("").Goose)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "library.db")

	repos, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	require.NoError(t, repos.Settings(repos.DB).Set(ctx, "AWS_S3_BUCKET", "media"))
	id, err := repos.Media.Save(ctx, &media.Attachment{File: "a.jpg"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	// reopening runs migrations again without touching data
	require.NoError(t, repos.Close())
	repos, err = Open(ctx, dsn)
	require.NoError(t, err)

	got, err := repos.Media.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", got.File)
}
