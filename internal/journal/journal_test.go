package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginFinishList(t *testing.T) {
	ctx := context.Background()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	id, err := j.Begin(ctx, "landing-solareignung")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.IsZero())

	require.NoError(t, j.Finish(ctx, id, StatusSucceeded, 3, 1, 0))

	runs, err = j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusSucceeded, runs[0].Status)
	assert.Equal(t, 3, runs[0].Fetched)
	assert.Equal(t, 1, runs[0].Deleted)
	assert.Equal(t, 0, runs[0].Failed)
	assert.False(t, runs[0].FinishedAt.IsZero())
	assert.False(t, runs[0].FinishedAt.Before(runs[0].StartedAt))
}

func TestListNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	var ids []string
	for _, p := range []string{"a", "b", "c"} {
		id, err := j.Begin(ctx, p)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// UUID v7 IDs are time-ordered, which breaks same-second ties.
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestFinishUnknownRun(t *testing.T) {
	ctx := context.Background()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	err = j.Finish(ctx, "no-such-run", StatusFailed, 0, 0, 1)
	assert.ErrorContains(t, err, "unknown run")
}

func TestOpenIsIdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	j, err := Open(dir)
	require.NoError(t, err)
	_, err = j.Begin(ctx, "landing-av")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(dir)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "history survives reopening")
}
