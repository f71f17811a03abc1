package types

import (
	"context"
	"errors"
)

// StorageBackend provides uniform file operations over a root location.
// Implementations must be behaviorally interchangeable: a pipeline written
// against this interface runs unchanged on the local filesystem or on a
// remote object store.
//
// Paths are slash-separated and relative to the backend root. Remote
// implementations wrap every call in the shared retry policy; local
// implementations do not retry.
type StorageBackend interface {
	// Read returns the contents of the file at path, or (nil, nil) if the
	// file does not exist. Absence is never an error.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, creating parent structure as needed.
	// Overwrites are idempotent.
	Write(ctx context.Context, path string, data []byte) error

	// List returns the names of files directly inside dir, relative to dir.
	// It is non-recursive and returns an empty slice for a missing dir.
	List(ctx context.Context, dir string) ([]string, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the file at path. Deleting a missing file is a no-op.
	Delete(ctx context.Context, path string) error

	// MkdirFor ensures the parent directory of path exists. Object stores
	// may materialize pseudo-directories or treat this as a no-op.
	MkdirFor(ctx context.Context, path string) error

	// DeleteDir removes dir and everything under it. Missing dirs are a no-op.
	DeleteDir(ctx context.Context, dir string) error

	// GDALPath returns the path string for handing the file at path to the
	// GDAL/OGR tools (absolute path locally, /vsigs/... on GCS). Callers are
	// responsible for MkdirFor when the tool will create the file.
	GDALPath(path string) string

	// AbsolutePath returns the backend-specific addressable location of path
	// (absolute filesystem path locally, gs://... on GCS).
	AbsolutePath(path string) string
}

// Backend construction errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrBucketEmpty       = errors.New("bucket must not be empty")
	ErrWorkersInvalid    = errors.New("workers must not be negative")
	ErrCredentialsNotSet = errors.New("GOOGLE_APPLICATION_CREDENTIALS is not set")
)
