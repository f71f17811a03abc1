package artifact

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/folimar/geopanda/pkg/types"
)

// VersionedFile binds a logical path to a backend and a versioning scheme.
// The logical path never changes; each stored version lives at the name the
// scheme constructs for it, next to the unversioned path.
type VersionedFile struct {
	Path    string
	Backend types.StorageBackend
	Scheme  types.VersioningScheme
}

// NewVersionedFile returns a handle for the versioned artifact at path.
func NewVersionedFile(path string, backend types.StorageBackend, scheme types.VersioningScheme) *VersionedFile {
	return &VersionedFile{Path: path, Backend: backend, Scheme: scheme}
}

// versionedPath resolves the stored name of a version, validating it.
func (v *VersionedFile) versionedPath(version string) (string, error) {
	return v.Scheme.Construct(v.Path, version)
}

// Read returns the payload of a version, or (nil, nil) if absent.
func (v *VersionedFile) Read(ctx context.Context, version string) ([]byte, error) {
	p, err := v.versionedPath(version)
	if err != nil {
		return nil, err
	}
	return v.Backend.Read(ctx, p)
}

// Write stores data as the given version. Fails with ErrInvalidVersionFormat
// on a malformed version; otherwise an idempotent overwrite.
func (v *VersionedFile) Write(ctx context.Context, data []byte, version string) error {
	p, err := v.versionedPath(version)
	if err != nil {
		return err
	}
	if err := v.Backend.MkdirFor(ctx, p); err != nil {
		return err
	}
	return v.Backend.Write(ctx, p, data)
}

// Exists reports whether the payload of a version exists. The sidecar is
// irrelevant here: an orphan sidecar left by a crashed delete reads as
// "no version".
func (v *VersionedFile) Exists(ctx context.Context, version string) (bool, error) {
	p, err := v.versionedPath(version)
	if err != nil {
		return false, err
	}
	return v.Backend.Exists(ctx, p)
}

// Delete removes a version's payload, then its sidecar.
func (v *VersionedFile) Delete(ctx context.Context, version string) error {
	p, err := v.versionedPath(version)
	if err != nil {
		return err
	}
	if err := v.Backend.Delete(ctx, p); err != nil {
		return err
	}
	return v.Backend.Delete(ctx, p+metaSuffix)
}

// ListVersions returns all stored versions, most recent first. It scans the
// artifact's parent directory, keeps names ending in the base filename,
// extracts versions and drops unparseable names. The scan is stateless, so
// it is stable and restartable.
func (v *VersionedFile) ListVersions(ctx context.Context) ([]string, error) {
	dir, base := path.Split(v.Path)
	names, err := v.Backend.List(ctx, strings.TrimSuffix(dir, "/"))
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, name := range names {
		if !strings.HasSuffix(name, base) {
			continue
		}
		if ver, ok := v.Scheme.Extract(name); ok {
			versions = append(versions, ver)
		}
	}

	var sortErr error
	sort.Slice(versions, func(i, j int) bool {
		c, err := v.Scheme.Compare(versions[i], versions[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c > 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return versions, nil
}

// LatestVersion returns the maximal stored version by scheme order, or ""
// when no version is stored.
func (v *VersionedFile) LatestVersion(ctx context.Context) (string, error) {
	versions, err := v.ListVersions(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", nil
	}
	return versions[0], nil
}

// GDALPath returns the tool-addressable path of a version's payload.
func (v *VersionedFile) GDALPath(version string) (string, error) {
	p, err := v.versionedPath(version)
	if err != nil {
		return "", err
	}
	return v.Backend.GDALPath(p), nil
}

// AbsolutePath returns the backend-specific addressable path of a version.
func (v *VersionedFile) AbsolutePath(version string) (string, error) {
	p, err := v.versionedPath(version)
	if err != nil {
		return "", err
	}
	return v.Backend.AbsolutePath(p), nil
}

// ReadMetadata returns a version's sidecar mapping, empty if absent.
func (v *VersionedFile) ReadMetadata(ctx context.Context, version string) (Metadata, error) {
	p, err := v.versionedPath(version)
	if err != nil {
		return nil, err
	}
	return readMetadata(ctx, v.Backend, p+metaSuffix)
}

// WriteMetadata fully replaces a version's sidecar. Written only after the
// version's payload write has succeeded.
func (v *VersionedFile) WriteMetadata(ctx context.Context, md Metadata, version string) error {
	p, err := v.versionedPath(version)
	if err != nil {
		return err
	}
	return writeMetadata(ctx, v.Backend, p+metaSuffix, md)
}
