// Package diffsync reconciles a manifest of expected remote objects against
// the set already stored: objects no longer expected are deleted, missing
// ones are fetched, everything else is left alone. Identities embed the
// upstream timestamp, so a newer upstream timestamp shows up as a brand-new
// identity — the fresh object lands in the fetch set and the stale one in
// the delete set.
//
// Every run derives the diff fresh from the current stored set, so a crashed
// or partially failed run needs no cleanup: re-running makes forward
// progress without duplicate work.
package diffsync

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/folimar/geopanda/pkg/types"
)

// Fetcher retrieves the payload of one manifest entry.
type Fetcher func(ctx context.Context, entry types.ManifestEntry) ([]byte, error)

// Engine syncs one backend directory against upstream manifests.
type Engine struct {
	// Backend and Dir locate the stored object set.
	Backend types.StorageBackend
	Dir     string

	// Filter restricts which stored names take part in the diff (e.g. only
	// "*.zip", leaving a checkpointed meta file alone). Nil means all.
	Filter func(name string) bool

	// Fetch retrieves payloads for missing identities.
	Fetch Fetcher

	// Workers bounds the fetch pool.
	Workers int

	Logger *zap.Logger
}

// Plan is the computed diff between expected and existing identities.
// Slices are sorted so runs are deterministic and loggable.
type Plan struct {
	ToDelete []string
	ToFetch  []string
}

// Result summarizes an executed sync run. Per-item failures are counted and
// reported, never allowed to abort the remaining items.
type Result struct {
	Deleted        int
	Fetched        int
	DeleteFailures int
	FetchFailures  int
}

// Failed reports whether any item failed after retry exhaustion.
func (r Result) Failed() bool {
	return r.DeleteFailures > 0 || r.FetchFailures > 0
}

// ComputePlan diffs the expected manifest against the existing identity set.
func ComputePlan(expected types.Manifest, existing []string) Plan {
	want := expected.Identities()
	have := make(map[string]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}

	var plan Plan
	for id := range have {
		if !want[id] {
			plan.ToDelete = append(plan.ToDelete, id)
		}
	}
	for id := range want {
		if !have[id] {
			plan.ToFetch = append(plan.ToFetch, id)
		}
	}
	sort.Strings(plan.ToDelete)
	sort.Strings(plan.ToFetch)
	return plan
}

// Run lists the stored set, computes the plan and executes it: deletions
// first, then fetches on a bounded worker pool. The returned error is non-nil
// only for failures outside the per-item loops (listing the stored set);
// per-item failures are reflected in the Result.
func (e *Engine) Run(ctx context.Context, expected types.Manifest) (Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	existing, err := e.existing(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list stored objects in %q: %w", e.Dir, err)
	}
	plan := ComputePlan(expected, existing)
	logger.Info("computed sync plan",
		zap.String("dir", e.Dir),
		zap.Int("expected", len(expected)),
		zap.Int("existing", len(existing)),
		zap.Int("to_delete", len(plan.ToDelete)),
		zap.Int("to_fetch", len(plan.ToFetch)))

	var res Result
	e.runDeletes(ctx, plan.ToDelete, &res, logger)
	e.runFetches(ctx, expected, plan.ToFetch, &res, logger)
	return res, nil
}

// existing returns the stored identities taking part in the diff.
func (e *Engine) existing(ctx context.Context) ([]string, error) {
	names, err := e.Backend.List(ctx, e.Dir)
	if err != nil {
		return nil, err
	}
	if e.Filter == nil {
		return names, nil
	}
	var kept []string
	for _, name := range names {
		if e.Filter(name) {
			kept = append(kept, name)
		}
	}
	return kept, nil
}

// runDeletes removes obsolete objects. One failed deletion must not block
// the others.
func (e *Engine) runDeletes(ctx context.Context, toDelete []string, res *Result, logger *zap.Logger) {
	total := len(toDelete)
	for i, id := range toDelete {
		path := e.objectPath(id)
		if err := e.Backend.Delete(ctx, path); err != nil {
			res.DeleteFailures++
			logger.Error("delete failed",
				zap.String("object", path), zap.Error(err))
			continue
		}
		res.Deleted++
		logger.Info(fmt.Sprintf("%d/%d deleted", i+1, total),
			zap.String("object", path))
	}
}

// runFetches downloads missing objects with a bounded pool. Completion order
// is irrelevant: every identity is an independent, disjoint key.
func (e *Engine) runFetches(ctx context.Context, expected types.Manifest, toFetch []string, res *Result, logger *zap.Logger) {
	total := len(toFetch)
	var done, fetched, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, id := range toFetch {
		entry := expected[id]
		g.Go(func() error {
			path := e.objectPath(entry.Identity)
			err := e.fetchOne(ctx, entry, path)
			i := done.Add(1)
			if err != nil {
				failed.Add(1)
				logger.Error(fmt.Sprintf("%d/%d fetch failed", i, total),
					zap.String("object", path),
					zap.String("href", entry.Href),
					zap.Error(err))
				return nil // isolate per-item failures
			}
			fetched.Add(1)
			logger.Info(fmt.Sprintf("%d/%d fetched", i, total),
				zap.String("object", path))
			return nil
		})
	}
	_ = g.Wait()

	res.Fetched = int(fetched.Load())
	res.FetchFailures = int(failed.Load())
}

// fetchOne downloads one entry and stores it under its identity.
func (e *Engine) fetchOne(ctx context.Context, entry types.ManifestEntry, path string) error {
	data, err := e.Fetch(ctx, entry)
	if err != nil {
		return err
	}
	if err := e.Backend.MkdirFor(ctx, path); err != nil {
		return err
	}
	return e.Backend.Write(ctx, path, data)
}

// objectPath resolves an identity to its backend path.
func (e *Engine) objectPath(id string) string {
	if e.Dir == "" {
		return id
	}
	return e.Dir + "/" + id
}
