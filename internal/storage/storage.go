// Package storage implements the StorageBackend contract for the local
// filesystem and for Google Cloud Storage. The two implementations are
// behaviorally interchangeable; the only differences are the addressable
// path forms (GDALPath/AbsolutePath) and the retry wrapping applied to every
// remote call.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/pkg/types"
)

// New constructs the backend selected by cfg. Remote backends validate their
// credentials here, at construction, never at first use.
func New(ctx context.Context, cfg types.Config, policy retry.Policy, logger *zap.Logger) (types.StorageBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendLocal:
		return NewLocal(cfg.DataDir)
	case types.BackendGCS:
		return NewGCS(ctx, cfg.Bucket, cfg.RootPrefix, policy, logger)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}
