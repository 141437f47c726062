// Package objectstore puts and deletes media objects in an S3-compatible
// bucket.
package objectstore

import (
	"context"
	"errors"
	"io"

	"github.com/aws/smithy-go"
)

// Store is the minimal object store surface the syncer needs.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// ErrorMessage returns the provider's own message for API errors and the
// plain error text otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return apiErr.ErrorCode() + ": " + msg
		}
		return apiErr.ErrorCode()
	}
	return err.Error()
}
