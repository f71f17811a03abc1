package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folimar/geopanda/internal/artifact"
	"github.com/folimar/geopanda/internal/diffsync"
	"github.com/folimar/geopanda/internal/fetch"
	"github.com/folimar/geopanda/internal/gdal"
	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/internal/storage"
	"github.com/folimar/geopanda/internal/version"
)

// stubTransform records jobs and fakes their output files.
type stubTransform struct {
	mu   sync.Mutex
	jobs []gdal.Job
	fail func(job gdal.Job) error
}

func (s *stubTransform) Translate(_ context.Context, job gdal.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(job); err != nil {
			return err
		}
	}
	s.jobs = append(s.jobs, job)
	return writeStubOutput(job)
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	backend, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	policy := retry.Default(nil)
	policy.InitialInterval = time.Millisecond

	return &Env{
		Backend:    backend,
		Fetch:      fetch.New(policy, 0, nil),
		Transform:  &stubTransform{},
		Scheme:     version.DayScheme{},
		Retry:      policy,
		Workers:    2,
		ScratchDir: t.TempDir(),
		Today:      func() string { return "20240102" },
	}
}

// upstream is a fake data host: /stac/solareignung serves a STAC item,
// /meta.txt serves line records, everything else serves dummy payloads. The
// STAC timestamp and the meta body are mutable so tests can move upstream
// forward between runs.
type upstream struct {
	srv *httptest.Server

	mu          sync.Mutex
	stacUpdated string
	meta        string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/stac/solareignung", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		updated := u.stacUpdated
		u.mu.Unlock()
		fmt.Fprintf(w, `{"assets": {"solareignung_2056.gdb.zip": {
			"href": "%s/solareignung_2056.gdb.zip",
			"updated": "%s"}}}`, u.srv.URL, updated)
	})
	mux.HandleFunc("/meta.txt", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		fmt.Fprint(w, u.meta)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "payload of %s", r.URL.Path)
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) setSTACUpdated(ts string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stacUpdated = ts
}

func (u *upstream) setMeta(lines ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.meta = ""
	for _, l := range lines {
		u.meta += l + "\n"
	}
}

func (u *upstream) stacURL() string { return u.srv.URL + "/stac/solareignung" }
func (u *upstream) metaURL() string { return u.srv.URL + "/meta.txt" }

// zipLine renders one meta.txt record pointing back at the fake host.
func (u *upstream) zipLine(rel, date string) string {
	return u.srv.URL + rel + " " + date
}

func TestLandingSolar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)
	up.setSTACUpdated("2023-11-16T07:12:04.032Z")

	res, err := LandingSolar(ctx, env, up.stacURL())
	require.NoError(t, err)
	assert.Equal(t, diffsync.Result{Fetched: 1}, res)

	// The synced object is directly addressable as a versioned artifact.
	asset := artifact.NewVersionedFile(SolarLandingDir+"/solareignung_2056.gdb.zip", env.Backend, env.Scheme)
	latest, err := asset.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20231116", latest)
}

func TestLandingSolarNewUpstreamTimestampReplaces(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)

	up.setSTACUpdated("2023-11-16T00:00:00.000Z")
	_, err := LandingSolar(ctx, env, up.stacURL())
	require.NoError(t, err)

	up.setSTACUpdated("2024-01-05T00:00:00.000Z")
	res, err := LandingSolar(ctx, env, up.stacURL())
	require.NoError(t, err)
	assert.Equal(t, diffsync.Result{Deleted: 1, Fetched: 1}, res)

	asset := artifact.NewVersionedFile(SolarLandingDir+"/solareignung_2056.gdb.zip", env.Backend, env.Scheme)
	versions, err := asset.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240105"}, versions, "the stale landing version is gone")
}

func TestLandingAV(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)
	up.setMeta(
		up.zipLine("/D/SHP/AG/4022.zip", "2023-11-16"),
		up.zipLine("/D/ITF/AG/4022.zip", "2023-11-16"),
	)

	res, err := LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)
	assert.Equal(t, diffsync.Result{Fetched: 1}, res, "the ITF variant is filtered out")

	names, err := env.Backend.List(ctx, AVLandingDir)
	require.NoError(t, err)
	assert.Contains(t, names, "meta.txt", "the checkpoint is stored next to the zips")

	// The checkpoint is stamped and versioned.
	checkpoint := artifact.NewFile(AVLandingDir+"/meta.txt", env.Backend)
	asof, err := artifact.ReadAsof(ctx, checkpoint)
	require.NoError(t, err)
	assert.False(t, asof.IsZero())

	versioned := artifact.NewVersionedFile(checkpoint.Path, env.Backend, env.Scheme)
	latest, err := versioned.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20240102", latest)
}

func TestLandingAVFreshnessGateSkipsSync(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)
	up.setMeta(up.zipLine("/D/SHP/AG/4022.zip", "2023-11-16"))

	_, err := LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)

	res, err := LandingAV(ctx, env, up.metaURL(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, diffsync.Result{}, res, "a fresh checkpoint skips the sync")

	res, err = LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)
	assert.Equal(t, diffsync.Result{}, res, "a forced run still finds nothing to do")
}

func TestLandingAVNewCheckpointVersionOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)
	line1 := up.zipLine("/D/SHP/AG/4022.zip", "2023-11-16")
	up.setMeta(line1)

	_, err := LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)

	// Same content on a later day: no new checkpoint version.
	env.Today = func() string { return "20240115" }
	_, err = LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)

	versioned := artifact.NewVersionedFile(AVLandingDir+"/meta.txt", env.Backend, env.Scheme)
	versions, err := versioned.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240102"}, versions)

	// Changed content cuts a new version.
	up.setMeta(line1, up.zipLine("/D/SHP/ZH/0261.zip", "2024-01-20"))
	env.Today = func() string { return "20240121" }
	_, err = LandingAV(ctx, env, up.metaURL(), 0)
	require.NoError(t, err)

	versions, err = versioned.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240121", "20240102"}, versions)
}

func TestLandingAVMalformedManifestIsFatal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	up := newUpstream(t)
	up.setMeta("not a manifest line")

	_, err := LandingAV(ctx, env, up.metaURL(), 0)
	assert.Error(t, err)
}
