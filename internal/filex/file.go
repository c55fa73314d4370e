// Package filex contains filesystem helpers for request-scoped scratch space.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if missing and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// ScopedDir creates root/parts... and returns it with a cleanup func that
// removes the directory and everything in it, then any intermediate parents
// left empty. root itself is kept. Cleanup is safe to call more than once.
// Parts must be single path elements.
func ScopedDir(root string, parts ...string) (string, func(), error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || filepath.Base(p) != p {
			return "", func() {}, fmt.Errorf("invalid path element %q", p)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", func() {}, fmt.Errorf("abs %s: %w", root, err)
	}

	// A concurrent cleanup may drop a shared parent between mkdir calls.
	path := filepath.Join(append([]string{absRoot}, parts...)...)
	dir, err := EnsureDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		dir, err = EnsureDir(path)
	}
	if err != nil {
		return "", func() {}, err
	}

	return dir, func() {
		_ = os.RemoveAll(dir)
		removeEmptyParents(absRoot, filepath.Dir(dir))
	}, nil
}

// removeEmptyParents walks from dir up to (excluding) root and removes each
// directory until one is not empty.
func removeEmptyParents(root, dir string) {
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
