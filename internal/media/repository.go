package media

import "context"

// Repository persists library entries. Missing rows yield common.ErrorNotFound.
type Repository interface {
	Get(ctx context.Context, id int64) (*Attachment, error)
	FindByFile(ctx context.Context, file string) (*Attachment, error)
	Save(ctx context.Context, a *Attachment) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Attachment, error)
}
