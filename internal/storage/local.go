package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/folimar/geopanda/pkg/types"
)

// errEscapesRoot rejects logical paths that climb out of the root.
var errEscapesRoot = errors.New("path escapes the storage root")

// Local stores files on the local filesystem under a root directory.
// Logical slash-separated paths are resolved below the root; a path escaping
// the root is rejected.
type Local struct {
	root string
}

// Compile-time interface check.
var _ types.StorageBackend = (*Local)(nil)

// NewLocal creates a Local backend rooted at root, creating the directory if
// needed and resolving it to an absolute path so addressable paths are stable.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Local{root: absRoot}, nil
}

// fullPath resolves a logical path to a filesystem path under the root.
// A path whose cleaned form lands outside the root is rejected.
func (l *Local) fullPath(path string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(strings.TrimLeft(path, "/")))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errEscapesRoot, path)
	}
	return full, nil
}

// Read returns the file contents, or (nil, nil) if the file does not exist.
func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}

// Write stores data at path via a temp file and atomic rename, creating
// parent directories as needed.
func (l *Local) Write(_ context.Context, path string, data []byte) error {
	dest, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(dest), err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename to %q: %w", path, err)
	}
	return nil
}

// List returns the names of regular files directly inside dir.
// A missing dir lists as empty.
func (l *Local) List(_ context.Context, dir string) ([]string, error) {
	full, err := l.fullPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Exists reports whether a regular file exists at path.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	return !info.IsDir(), nil
}

// Delete removes the file at path. Missing files are a no-op.
func (l *Local) Delete(_ context.Context, path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %q: %w", path, err)
	}
	return nil
}

// MkdirFor ensures the parent directory of path exists.
func (l *Local) MkdirFor(_ context.Context, path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}
	return nil
}

// DeleteDir removes dir and everything under it.
func (l *Local) DeleteDir(_ context.Context, dir string) error {
	full, err := l.fullPath(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete dir %q: %w", dir, err)
	}
	return nil
}

// GDALPath returns the absolute filesystem path for GDAL/OGR tools.
// An escaping path addresses nothing and yields "".
func (l *Local) GDALPath(path string) string {
	full, err := l.fullPath(path)
	if err != nil {
		return ""
	}
	return full
}

// AbsolutePath returns the absolute filesystem path.
// An escaping path addresses nothing and yields "".
func (l *Local) AbsolutePath(path string) string {
	full, err := l.fullPath(path)
	if err != nil {
		return ""
	}
	return full
}
