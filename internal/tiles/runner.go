package tiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/pkg/types"
)

// Worker produces one tile's chunk dataset at chunkPath.
type Worker func(ctx context.Context, tile Tile, chunkPath string) error

// Merger combines the finished chunk datasets into one output at outPath.
type Merger func(ctx context.Context, chunkPaths []string, outPath string) error

// Runner executes a tile grid: scatter the per-tile work across a bounded
// pool, gather the chunks into one dataset, publish it to the backend.
type Runner struct {
	// Backend and Dest locate the published output.
	Backend types.StorageBackend
	Dest    string

	// Scratch is the local working directory for chunks and the merged
	// output. Empty means a fresh temporary directory, removed when Run
	// returns. A caller-provided Scratch survives failed runs, so a re-run
	// resumes from the chunks already written; it is removed on success.
	Scratch string

	// Workers bounds the scatter pool.
	Workers int

	Process Worker
	Merge   Merger
	Retry   retry.Policy
	Logger  *zap.Logger
}

// Run executes the grid. A tile chunk that already exists in Scratch is
// skipped, which is what makes re-running a failed job cheap. The merge and
// the upload are each retried as a unit under the runner's policy.
func (r *Runner) Run(ctx context.Context, grid []Tile) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	scratch := r.Scratch
	if scratch == "" {
		dir, err := os.MkdirTemp("", "tiles-*")
		if err != nil {
			return fmt.Errorf("create scratch dir: %w", err)
		}
		defer os.RemoveAll(dir)
		scratch = dir
	} else if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	chunks, err := r.scatter(ctx, grid, scratch, logger)
	if err != nil {
		return err
	}

	outPath := filepath.Join(scratch, "merged.gpkg")
	if err := r.Retry.Do(ctx, "merge chunks", func() error {
		// A partial merge output must not be appended into twice.
		if err := os.RemoveAll(outPath); err != nil {
			return err
		}
		return r.Merge(ctx, chunks, outPath)
	}); err != nil {
		return err
	}

	if err := r.publish(ctx, outPath); err != nil {
		return err
	}

	if r.Scratch != "" {
		if err := os.RemoveAll(r.Scratch); err != nil {
			logger.Warn("scratch cleanup failed",
				zap.String("dir", r.Scratch), zap.Error(err))
		}
	}
	return nil
}

// scatter runs the per-tile work and returns the chunk paths in grid order.
// A failed tile is counted and logged but does not stop the others: every
// tile gets its attempt with the caller's context, so a later resume only has
// the failed tiles left to redo. The batch errors after the pool drains if
// any tile failed.
func (r *Runner) scatter(ctx context.Context, grid []Tile, scratch string, logger *zap.Logger) ([]string, error) {
	total := len(grid)
	chunks := make([]string, total)
	var failed atomic.Int64

	// A plain group, not WithContext: one tile's failure must not cancel the
	// context the remaining tiles are working under.
	var g errgroup.Group
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, tile := range grid {
		i, tile := i, tile
		chunkPath := filepath.Join(scratch, tile.ChunkName())
		chunks[i] = chunkPath
		g.Go(func() error {
			if _, err := os.Stat(chunkPath); err == nil {
				logger.Info(fmt.Sprintf("%d/%d tile reused", i+1, total),
					zap.String("chunk", tile.ChunkName()))
				return nil
			}
			if err := r.Process(ctx, tile, chunkPath); err != nil {
				// Never let a partial chunk pass the resume check.
				_ = os.Remove(chunkPath)
				failed.Add(1)
				logger.Warn(fmt.Sprintf("%d/%d tile failed", i+1, total),
					zap.String("chunk", tile.ChunkName()), zap.Error(err))
				return fmt.Errorf("tile (%d,%d): %w", tile.Col, tile.Row, err)
			}
			logger.Info(fmt.Sprintf("%d/%d tile done", i+1, total),
				zap.String("chunk", tile.ChunkName()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%d of %d tiles failed: %w", failed.Load(), total, err)
	}
	return chunks, nil
}

// publish uploads the merged output, replacing any previous object.
func (r *Runner) publish(ctx context.Context, outPath string) error {
	data, err := os.ReadFile(outPath)
	if err != nil {
		return fmt.Errorf("read merged output: %w", err)
	}
	return r.Retry.Do(ctx, "publish "+r.Dest, func() error {
		if err := r.Backend.Delete(ctx, r.Dest); err != nil {
			return err
		}
		if err := r.Backend.MkdirFor(ctx, r.Dest); err != nil {
			return err
		}
		return r.Backend.Write(ctx, r.Dest, data)
	})
}
