package objectstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	assert.Equal(t, "image/png", DetectContentType(writeFile(t, "no-extension", png)))
	assert.Equal(t, "image/png", DetectContentType(writeFile(t, "wrong.jpg", png)), "content wins over extension")
	assert.Equal(t, "image/jpeg", DetectContentType(writeFile(t, "opaque.jpg", []byte{0x00, 0x01, 0x02, 0x03})))
	assert.Equal(t, "application/octet-stream", DetectContentType(writeFile(t, "opaque.zzz9", []byte{0x00, 0x01, 0x02})))
	assert.Equal(t, "application/octet-stream", DetectContentType(filepath.Join(t.TempDir(), "missing.zzz9")))
}
