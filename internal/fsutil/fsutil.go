// Package fsutil holds the few directory primitives the installer and the
// orchestrators share.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureExists creates dir and any missing parents.
func EnsureExists(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// EnsureEmptyDir leaves dir present and empty, removing whatever it held.
func EnsureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return EnsureExists(dir)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return nil
}

// RemoveIfEmpty deletes dir only when it has no entries. A missing dir is
// not an error.
func RemoveIfEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
