package filex

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Reclaimer removes directories left empty after a media file is deleted.
// It walks upward from the file's directory and never removes the base
// directory itself or anything outside it.
type Reclaimer struct {
	base  string
	locks *KeyedMutex
}

// NewReclaimer returns a Reclaimer rooted at base.
func NewReclaimer(base string) *Reclaimer {
	return &Reclaimer{
		base:  filepath.Clean(base),
		locks: NewKeyedMutex(),
	}
}

// Reclaim starts at the parent directory of path and removes each empty
// ancestor until it reaches a non-empty or missing directory, the base
// directory, or the filesystem root. It returns the removed directories in
// removal order.
func (r *Reclaimer) Reclaim(path string) ([]string, error) {
	var removed []string

	dir := filepath.Dir(filepath.Clean(path))
	for r.inScope(dir) {
		ok, err := r.removeIfEmpty(dir)
		if err != nil {
			return removed, err
		}
		if !ok {
			break
		}
		removed = append(removed, dir)

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return removed, nil
}

// inScope reports whether dir lies strictly below the base directory.
func (r *Reclaimer) inScope(dir string) bool {
	if dir == r.base {
		return false
	}
	rel, err := filepath.Rel(r.base, dir)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// removeIfEmpty removes dir while holding its lock. Missing and non-empty
// directories report false without error.
func (r *Reclaimer) removeIfEmpty(dir string) (bool, error) {
	unlock := r.locks.Lock(dir)
	defer unlock()

	f, err := os.Open(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", dir, err)
	}
	_, err = f.Readdirnames(1)
	_ = f.Close()

	if err == nil {
		return false, nil
	}
	if !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read %s: %w", dir, err)
	}

	// rmdir fails if a file appeared after the read; that is not an error.
	if err := os.Remove(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("rmdir %s: %w", dir, err)
	}
	return true, nil
}
