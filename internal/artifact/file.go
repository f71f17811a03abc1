// Package artifact provides handles binding a logical file path to a storage
// backend: plain File for unversioned sinks and VersionedFile for artifacts
// tracked under a versioning scheme. Each stored payload may carry a JSON
// metadata sidecar at "{name}__meta.json"; the sidecar holds the dependency
// version log and whatever else a pipeline records, and always travels with
// its payload (deleted together, never diverging).
package artifact

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/folimar/geopanda/pkg/types"
)

// metaSuffix derives a sidecar name from a payload name.
const metaSuffix = "__meta.json"

// Metadata is the sidecar content. Writes are full replacements; a caller
// that wants unrelated keys retained must re-supply them.
type Metadata map[string]any

// File binds a logical path to a backend.
type File struct {
	Path    string
	Backend types.StorageBackend
}

// NewFile returns a handle for the unversioned artifact at path.
func NewFile(path string, backend types.StorageBackend) *File {
	return &File{Path: path, Backend: backend}
}

// Read returns the file contents, or (nil, nil) if absent.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	return f.Backend.Read(ctx, f.Path)
}

// Write stores data, creating parent structure as needed.
func (f *File) Write(ctx context.Context, data []byte) error {
	if err := f.Backend.MkdirFor(ctx, f.Path); err != nil {
		return err
	}
	return f.Backend.Write(ctx, f.Path, data)
}

// Exists reports whether the payload exists.
func (f *File) Exists(ctx context.Context) (bool, error) {
	return f.Backend.Exists(ctx, f.Path)
}

// Delete removes the payload, then the sidecar. The ordering matters: a
// crash in between leaves an orphan sidecar, which readers tolerate because
// existence checks look at the payload only.
func (f *File) Delete(ctx context.Context) error {
	if err := f.Backend.Delete(ctx, f.Path); err != nil {
		return err
	}
	return f.Backend.Delete(ctx, f.Path+metaSuffix)
}

// GDALPath returns the tool-addressable path of the payload.
func (f *File) GDALPath() string {
	return f.Backend.GDALPath(f.Path)
}

// AbsolutePath returns the backend-specific addressable path of the payload.
func (f *File) AbsolutePath() string {
	return f.Backend.AbsolutePath(f.Path)
}

// ReadMetadata returns the sidecar mapping, empty if absent.
func (f *File) ReadMetadata(ctx context.Context) (Metadata, error) {
	return readMetadata(ctx, f.Backend, f.Path+metaSuffix)
}

// WriteMetadata fully replaces the sidecar.
func (f *File) WriteMetadata(ctx context.Context, md Metadata) error {
	return writeMetadata(ctx, f.Backend, f.Path+metaSuffix, md)
}

func readMetadata(ctx context.Context, backend types.StorageBackend, metaPath string) (Metadata, error) {
	data, err := backend.Read(ctx, metaPath)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return Metadata{}, nil
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata %q: %w", metaPath, err)
	}
	return md, nil
}

func writeMetadata(ctx context.Context, backend types.StorageBackend, metaPath string, md Metadata) error {
	data, err := json.MarshalIndent(md, "", "    ")
	if err != nil {
		return fmt.Errorf("encode metadata %q: %w", metaPath, err)
	}
	if err := backend.MkdirFor(ctx, metaPath); err != nil {
		return err
	}
	return backend.Write(ctx, metaPath, data)
}
