// Package filex holds small filesystem helpers shared by the credential
// store and the media syncer, plus the empty-directory reclaimer.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// EnsureDir creates dir and any missing parents with perm. An existing
// directory is left as is; an existing non-directory is an error.
func EnsureDir(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// RemoveIfExists deletes the file at path. It returns false without error
// when the file is already gone.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
}
