package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/dbx"
)

// PostgresRepository stores attachments in PostgreSQL over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the attachment with the given id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Attachment, error) {
	query := `
		SELECT id, file, width, height, mime_type, sizes
		FROM attachments
		WHERE id = $1
	`
	a, err := scanAttachment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// FindByFile looks an attachment up by its main file path.
func (r *PostgresRepository) FindByFile(ctx context.Context, file string) (*Attachment, error) {
	query := `
		SELECT id, file, width, height, mime_type, sizes
		FROM attachments
		WHERE file = $1
	`
	a, err := scanAttachment(r.db.QueryRowContext(ctx, query, file))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Save inserts when a.ID is zero and upserts by id otherwise.
func (r *PostgresRepository) Save(ctx context.Context, a *Attachment) (int64, error) {
	sizes, err := encodeSizes(a.Sizes)
	if err != nil {
		return 0, err
	}

	var id int64
	if a.ID == 0 {
		query := `
			INSERT INTO attachments (file, width, height, mime_type, sizes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err = r.db.QueryRowContext(ctx, query, a.File, a.Width, a.Height, a.MimeType, sizes).Scan(&id)
	} else {
		query := `
			INSERT INTO attachments (id, file, width, height, mime_type, sizes)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				file = EXCLUDED.file,
				width = EXCLUDED.width,
				height = EXCLUDED.height,
				mime_type = EXCLUDED.mime_type,
				sizes = EXCLUDED.sizes
			RETURNING id
		`
		err = r.db.QueryRowContext(ctx, query, a.ID, a.File, a.Width, a.Height, a.MimeType, sizes).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	a.ID = id
	return id, nil
}

// Delete removes an attachment row; deleting a missing id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns every attachment ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*Attachment, error) {
	query := `
		SELECT id, file, width, height, mime_type, sizes
		FROM attachments
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
