package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/pkg/types"
)

// credentialsEnv gates availability of the GCS backend. Construction fails
// fast when it is unset; a pipeline must not discover missing credentials at
// its first remote call.
const credentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// GCS stores files as objects in a Google Cloud Storage bucket under an
// optional root prefix. Every operation runs inside the shared retry policy.
//
// GCS has no real directories; MkdirFor materializes a zero-byte pseudo-dir
// object the way the console does, so prefix listings behave like the local
// backend's directory listings.
type GCS struct {
	client *gcs.Client
	bucket string
	root   string
	policy retry.Policy
	logger *zap.Logger
}

// Compile-time interface check.
var _ types.StorageBackend = (*GCS)(nil)

// NewGCS creates a GCS backend for the given bucket and root prefix.
func NewGCS(ctx context.Context, bucket, root string, policy retry.Policy, logger *zap.Logger) (*GCS, error) {
	if os.Getenv(credentialsEnv) == "" {
		return nil, types.ErrCredentialsNotSet
	}
	if strings.Trim(bucket, "/.") == "" {
		return nil, types.ErrBucketEmpty
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCS{
		client: client,
		bucket: bucket,
		root:   strings.Trim(root, "/"),
		policy: policy,
		logger: logger,
	}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// fullPath resolves a logical path to an object name under the root prefix.
func (g *GCS) fullPath(p string) string {
	return path.Join(g.root, strings.TrimLeft(p, "/"))
}

// object returns the handle for the logical path.
func (g *GCS) object(p string) *gcs.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.fullPath(p))
}

// Read returns the object contents, or (nil, nil) if the object is absent.
func (g *GCS) Read(ctx context.Context, p string) ([]byte, error) {
	var data []byte
	err := g.policy.Do(ctx, fmt.Sprintf("gcs read %s", p), func() error {
		r, err := g.object(p).NewReader(ctx)
		if errors.Is(err, gcs.ErrObjectNotExist) {
			data = nil
			return nil
		}
		if err != nil {
			return err
		}
		defer r.Close()
		data, err = io.ReadAll(r)
		return err
	})
	return data, err
}

// Write uploads data to the object at path.
func (g *GCS) Write(ctx context.Context, p string, data []byte) error {
	return g.policy.Do(ctx, fmt.Sprintf("gcs write %s", p), func() error {
		w := g.object(p).NewWriter(ctx)
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
}

// List returns the object names directly under dir, relative to dir.
// Pseudo-directory placeholder objects are skipped.
func (g *GCS) List(ctx context.Context, dir string) ([]string, error) {
	prefix := g.fullPath(dir)
	if prefix != "" {
		prefix += "/"
	}
	var names []string
	err := g.policy.Do(ctx, fmt.Sprintf("gcs list %s", dir), func() error {
		names = names[:0]
		it := g.client.Bucket(g.bucket).Objects(ctx, &gcs.Query{
			Prefix:    prefix,
			Delimiter: "/",
		})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
				continue // sub-prefix or pseudo-directory placeholder
			}
			names = append(names, strings.TrimPrefix(attrs.Name, prefix))
		}
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Exists reports whether the object at path exists.
func (g *GCS) Exists(ctx context.Context, p string) (bool, error) {
	var found bool
	err := g.policy.Do(ctx, fmt.Sprintf("gcs exists %s", p), func() error {
		_, err := g.object(p).Attrs(ctx)
		if errors.Is(err, gcs.ErrObjectNotExist) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Delete removes the object at path. Missing objects are a no-op.
func (g *GCS) Delete(ctx context.Context, p string) error {
	return g.policy.Do(ctx, fmt.Sprintf("gcs delete %s", p), func() error {
		err := g.object(p).Delete(ctx)
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return err
	})
}

// MkdirFor materializes the pseudo-directory of path's parent.
func (g *GCS) MkdirFor(ctx context.Context, p string) error {
	dir := path.Dir(g.fullPath(p))
	if dir == "." || dir == "/" || dir == g.root {
		return nil
	}
	return g.policy.Do(ctx, fmt.Sprintf("gcs mkdir %s", dir), func() error {
		w := g.client.Bucket(g.bucket).Object(dir + "/").NewWriter(ctx)
		if _, err := w.Write(nil); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
}

// DeleteDir removes every object under dir.
func (g *GCS) DeleteDir(ctx context.Context, dir string) error {
	prefix := g.fullPath(dir)
	if prefix != "" {
		prefix += "/"
	}
	return g.policy.Do(ctx, fmt.Sprintf("gcs delete dir %s", dir), func() error {
		it := g.client.Bucket(g.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			err = g.client.Bucket(g.bucket).Object(attrs.Name).Delete(ctx)
			if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
				return err
			}
		}
	})
}

// GDALPath returns the /vsigs/ virtual filesystem path of the object.
func (g *GCS) GDALPath(p string) string {
	return "/vsigs/" + g.bucket + "/" + g.fullPath(p)
}

// AbsolutePath returns the gs:// URI of the object.
func (g *GCS) AbsolutePath(p string) string {
	return "gs://" + g.bucket + "/" + g.fullPath(p)
}
