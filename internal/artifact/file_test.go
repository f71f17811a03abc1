package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folimar/geopanda/internal/storage"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewFile("landing/ch.bfs.gwr/buildings.fgb", backend)
}

func TestFileDeleteRemovesSidecar(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, []byte("payload")))
	require.NoError(t, f.WriteMetadata(ctx, Metadata{"k": "v"}))
	require.NoError(t, f.Delete(ctx))

	ok, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	md, err := f.ReadMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, md)
}

func TestFileMetadataFullReplace(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	require.NoError(t, f.WriteMetadata(ctx, Metadata{"a": "1", "b": "2"}))
	require.NoError(t, f.WriteMetadata(ctx, Metadata{"a": "3"}))

	md, err := f.ReadMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, Metadata{"a": "3"}, md, "writes replace, they do not merge")
}

func TestAsofFreshnessGate(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	stale, err := IsStale(ctx, f, 14*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, stale, "a sink with no asof stamp is stale")

	require.NoError(t, WriteAsofNow(ctx, f))

	stale, err = IsStale(ctx, f, 14*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, stale)

	asof, err := ReadAsof(ctx, f)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), asof, time.Minute)
}
