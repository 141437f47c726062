package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/dbx"
)

const sqliteColumns = `id, file, width, height, mime_type, sizes`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Attachment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM attachments WHERE id = ?`, id)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) FindByFile(ctx context.Context, file string) (*Attachment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM attachments WHERE file = ?`, file)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attachment by file %q: %w", file, err)
	}
	return a, nil
}

// Save inserts a new attachment when a.ID is zero, otherwise upserts by id.
// The stored id is written back to a and returned.
func (r *SQLiteRepository) Save(ctx context.Context, a *Attachment) (int64, error) {
	sizes, err := encodeSizes(a.Sizes)
	if err != nil {
		return 0, err
	}

	var id sql.NullInt64
	if a.ID != 0 {
		id = sql.NullInt64{Int64: a.ID, Valid: true}
	}

	var saved int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO attachments (id, file, width, height, mime_type, sizes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file = excluded.file,
			width = excluded.width,
			height = excluded.height,
			mime_type = excluded.mime_type,
			sizes = excluded.sizes
		RETURNING id
	`, id, a.File, a.Width, a.Height, a.MimeType, sizes).Scan(&saved)
	if err != nil {
		return 0, fmt.Errorf("failed to save attachment %q: %w", a.File, err)
	}

	a.ID = saved
	return saved, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete attachment %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM attachments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var result []*Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachment rows: %w", err)
	}
	return result, nil
}
