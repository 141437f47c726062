// Package paths maps local media files to object keys and public URLs.
package paths

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
)

var repeatedSlashes = regexp.MustCompile(`/{2,}`)

// Translator converts between absolute local paths under a base directory,
// object keys (paths relative to that directory) and public remote URLs.
// It performs no I/O and is safe for concurrent use.
type Translator struct {
	baseDir       string
	remoteBaseURL string
}

func NewTranslator(baseDir, remoteBaseURL string) *Translator {
	return &Translator{
		baseDir:       strings.TrimRight(clean(Normalize(baseDir)), "/"),
		remoteBaseURL: strings.TrimRight(remoteBaseURL, "/"),
	}
}

// Normalize converts backslashes to forward slashes, collapses repeated
// slashes and upper-cases a Windows drive letter.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = repeatedSlashes.ReplaceAllString(p, "/")
	if len(p) >= 2 && p[1] == ':' {
		p = strings.ToUpper(p[:1]) + p[1:]
	}
	return p
}

// clean resolves "." and ".." segments. The empty path stays empty.
func clean(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// ObjectKey returns the key for an absolute local path. The key never has a
// leading slash and never contains the base directory. Paths outside the
// base directory, including ones that leave it through "..", yield
// common.ErrPathOutOfScope.
func (t *Translator) ObjectKey(localPath string) (string, error) {
	p := clean(Normalize(localPath))

	rel, ok := strings.CutPrefix(p, t.baseDir)
	if !ok || (rel != "" && !strings.HasPrefix(rel, "/") && t.baseDir != "") {
		return "", fmt.Errorf("%w: %s", common.ErrPathOutOfScope, localPath)
	}

	key := strings.TrimLeft(rel, "/")
	if key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("%w: %s", common.ErrPathOutOfScope, localPath)
	}
	if key == "" || key == "." {
		return "", fmt.Errorf("%w: %s is the base directory", common.ErrPathOutOfScope, localPath)
	}
	return key, nil
}

// PublicURL joins the remote base URL and a relative path with exactly one
// slash between them.
func (t *Translator) PublicURL(relativePath string) string {
	return t.remoteBaseURL + "/" + strings.TrimLeft(Normalize(relativePath), "/")
}

// LocalPath is the inverse of ObjectKey. The result is cleaned, so a key
// climbing out with ".." maps to a path ObjectKey rejects.
func (t *Translator) LocalPath(key string) string {
	return clean(t.baseDir + "/" + strings.TrimLeft(Normalize(key), "/"))
}
