// Package pipeline implements the concrete ETL pipelines: landing syncs that
// mirror upstream datasets into the artifact store and refine transforms
// that derive versioned outputs from them. Each pipeline is independently
// restartable and records its run in the journal.
package pipeline

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/diffsync"
	"github.com/folimar/geopanda/internal/fetch"
	"github.com/folimar/geopanda/internal/gdal"
	"github.com/folimar/geopanda/internal/journal"
	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/internal/version"
	"github.com/folimar/geopanda/pkg/types"
)

// Env bundles the shared collaborators every pipeline needs. Transform and
// Journal are the two seams tests swap out: a stub Transformer keeps GDAL
// out of the test environment, a nil Journal disables run recording.
type Env struct {
	Backend   types.StorageBackend
	Fetch     *fetch.Client
	Transform gdal.Transformer
	Journal   *journal.Journal
	Scheme    types.VersioningScheme
	Retry     retry.Policy
	Workers   int
	Logger    *zap.Logger

	// ScratchDir is the base directory for refine working files. Empty means
	// the system temp directory.
	ScratchDir string

	// Today overrides the output version stamp of refine runs and checkpoint
	// versions. Nil means the current date.
	Today func() string
}

// versionToday returns the version stamp for outputs produced now.
func versionToday(e *Env) string {
	if e.Today != nil {
		return e.Today()
	}
	return version.Today()
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Env) scheme() types.VersioningScheme {
	if e.Scheme == nil {
		return version.DayScheme{}
	}
	return e.Scheme
}

func (e *Env) scratchDir() string {
	if e.ScratchDir != "" {
		return e.ScratchDir
	}
	return os.TempDir()
}

// record wraps a pipeline body with journal bookkeeping. The body's result
// feeds the run counters; the run is marked failed when the body errors or
// any per-item failure survived retries.
func (e *Env) record(ctx context.Context, pipeline string, body func() (diffsync.Result, error)) (diffsync.Result, error) {
	if e.Journal == nil {
		return body()
	}

	runID, err := e.Journal.Begin(ctx, pipeline)
	if err != nil {
		return diffsync.Result{}, err
	}

	res, err := body()
	status := journal.StatusSucceeded
	if err != nil || res.Failed() {
		status = journal.StatusFailed
	}
	failed := res.DeleteFailures + res.FetchFailures
	if jerr := e.Journal.Finish(ctx, runID, status, res.Fetched, res.Deleted, failed); jerr != nil {
		e.logger().Warn("journal update failed",
			zap.String("run_id", runID), zap.Error(jerr))
	}
	return res, err
}
