// Shared helpers for panda CLI commands.
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/fetch"
	"github.com/folimar/geopanda/internal/gdal"
	"github.com/folimar/geopanda/internal/journal"
	"github.com/folimar/geopanda/internal/pipeline"
	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/internal/storage"
	"github.com/folimar/geopanda/internal/version"
	"github.com/folimar/geopanda/pkg/types"
)

// buildConfig assembles the backend configuration from config.yaml and the
// directory precedence chain.
func buildConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:    cliConfig.backend,
		DataDir:    dataDir,
		Bucket:     cliConfig.bucket,
		RootPrefix: cliConfig.rootPrefix,
		Workers:    cliConfig.workers,
	}
	return cfg, cfg.Validate()
}

// newBackend constructs the configured storage backend.
func newBackend(ctx context.Context) (types.StorageBackend, types.Config, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, types.Config{}, err
	}
	backend, err := storage.New(ctx, cfg, retry.Default(logger), logger)
	if err != nil {
		return nil, types.Config{}, fmt.Errorf("construct %s backend: %w", cfg.Backend, err)
	}
	return backend, cfg, nil
}

// newEnv assembles the pipeline environment. The returned cleanup closes the
// run journal; callers must defer it.
func newEnv(ctx context.Context) (*pipeline.Env, func(), error) {
	backend, cfg, err := newBackend(ctx)
	if err != nil {
		return nil, nil, err
	}

	j, err := journal.Open(resolvedConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open run journal: %w", err)
	}
	cleanup := func() {
		if err := j.Close(); err != nil {
			logger.Warn("close run journal", zap.Error(err))
		}
	}

	policy := retry.Default(logger)
	env := &pipeline.Env{
		Backend:   backend,
		Fetch:     fetch.New(policy, 0, logger),
		Transform: &gdal.OGR{Logger: logger},
		Journal:   j,
		Scheme:    version.DayScheme{},
		Retry:     policy,
		Workers:   cfg.Parallelism(),
		Logger:    logger,
	}
	return env, cleanup, nil
}
