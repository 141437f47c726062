package objectstore

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackContentType = "application/octet-stream"

// DetectContentType sniffs the file content first and falls back to the
// extension, then to application/octet-stream.
func DetectContentType(path string) string {
	if m, err := mimetype.DetectFile(path); err == nil && m.String() != fallbackContentType {
		return m.String()
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return fallbackContentType
}
