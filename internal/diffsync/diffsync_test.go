package diffsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folimar/geopanda/internal/storage"
	"github.com/folimar/geopanda/pkg/types"
)

func manifestOf(ids ...string) types.Manifest {
	m := types.Manifest{}
	for _, id := range ids {
		m[id] = types.ManifestEntry{
			Identity: id,
			Href:     "https://example.test/" + id,
			Updated:  time.Date(2023, 11, 16, 0, 0, 0, 0, time.UTC),
		}
	}
	return m
}

func TestComputePlan(t *testing.T) {
	plan := ComputePlan(manifestOf("b", "c", "d"), []string{"a", "b", "c"})

	assert.Equal(t, []string{"a"}, plan.ToDelete)
	assert.Equal(t, []string{"d"}, plan.ToFetch)
}

func TestComputePlanOrderIndependence(t *testing.T) {
	p1 := ComputePlan(manifestOf("x", "y"), []string{"y", "z"})
	p2 := ComputePlan(manifestOf("y", "x"), []string{"z", "y"})
	assert.Equal(t, p1, p2)
}

func newTestEngine(t *testing.T, fetch Fetcher) *Engine {
	t.Helper()
	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return &Engine{
		Backend: backend,
		Dir:     "landing/raw",
		Fetch:   fetch,
		Workers: 4,
	}
}

func TestRunDeletesAndFetches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		return []byte("payload of " + entry.Identity), nil
	})

	for _, id := range []string{"a.zip", "b.zip", "c.zip"} {
		require.NoError(t, e.Backend.Write(ctx, "landing/raw/"+id, []byte("old")))
	}

	res, err := e.Run(ctx, manifestOf("b.zip", "c.zip", "d.zip"))
	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1, Fetched: 1}, res)
	assert.False(t, res.Failed())

	names, err := e.Backend.List(ctx, "landing/raw")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.zip", "c.zip", "d.zip"}, names)

	data, err := e.Backend.Read(ctx, "landing/raw/d.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload of d.zip"), data)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fetches := 0
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		fetches++
		return []byte("x"), nil
	})

	m := manifestOf("a.zip", "b.zip")

	res, err := e.Run(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)

	res, err = e.Run(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res, "an unchanged manifest performs zero deletions and zero fetches")
	assert.Equal(t, 2, fetches)
}

func TestRunNewerTimestampIsNewIdentity(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		return []byte("x"), nil
	})

	_, err := e.Run(ctx, manifestOf("20231101_asset.zip"))
	require.NoError(t, err)

	// Upstream publishes a newer timestamp: old identity is deleted, new
	// one fetched.
	res, err := e.Run(ctx, manifestOf("20231116_asset.zip"))
	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1, Fetched: 1}, res)

	names, err := e.Backend.List(ctx, "landing/raw")
	require.NoError(t, err)
	assert.Equal(t, []string{"20231116_asset.zip"}, names)
}

func TestRunIsolatesFetchFailures(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		if entry.Identity == "bad.zip" {
			return nil, errors.New("upstream 500")
		}
		return []byte("x"), nil
	})

	res, err := e.Run(ctx, manifestOf("good1.zip", "bad.zip", "good2.zip"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.FetchFailures)
	assert.True(t, res.Failed())

	// A re-run only needs to pick up the failed item.
	e.Fetch = func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		return []byte("x"), nil
	}
	res, err = e.Run(ctx, manifestOf("good1.zip", "bad.zip", "good2.zip"))
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 1}, res)
}

func TestRunFilterKeepsUnrelatedFiles(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		return []byte("x"), nil
	})
	e.Filter = func(name string) bool { return strings.HasSuffix(name, ".zip") }

	require.NoError(t, e.Backend.Write(ctx, "landing/raw/meta.txt", []byte("checkpoint")))
	require.NoError(t, e.Backend.Write(ctx, "landing/raw/old.zip", []byte("old")))

	res, err := e.Run(ctx, manifestOf("new.zip"))
	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1, Fetched: 1}, res)

	ok, err := e.Backend.Exists(ctx, "landing/raw/meta.txt")
	require.NoError(t, err)
	assert.True(t, ok, "the filtered-out meta file is never part of the diff")
}

func TestRunManyObjectsBoundedPool(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, func(_ context.Context, entry types.ManifestEntry) ([]byte, error) {
		return []byte(entry.Href), nil
	})
	e.Workers = 3

	ids := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		ids = append(ids, fmt.Sprintf("%04d.zip", i))
	}

	res, err := e.Run(ctx, manifestOf(ids...))
	require.NoError(t, err)
	assert.Equal(t, 40, res.Fetched)
}
