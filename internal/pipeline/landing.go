package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/artifact"
	"github.com/folimar/geopanda/internal/diffsync"
	"github.com/folimar/geopanda/internal/manifest"
)

// Upstream defaults. Both are overridable so tests (and mirror setups) can
// point the pipelines at another host.
const (
	DefaultSolarSTACURL = "https://data.geo.admin.ch/api/stac/v0.9/collections/ch.bfe.solareignung/items/solareignung"
	DefaultAVMetaURL    = "https://data.geo.admin.ch/ch.swisstopo-vd.amtliche-vermessung/DM01AVCH24D/meta.txt"
)

// Landing zone directories.
const (
	SolarLandingDir = "landing/solareignung"
	AVLandingDir    = "landing/av"
)

// solarAssetKey is the one STAC asset the solar pipeline mirrors.
const solarAssetKey = "solareignung_2056.gdb.zip"

// avCheckpointName stores the last successfully synced meta.txt next to the
// zips, both as a freshness checkpoint and as a versioned change record for
// downstream dependency tracking.
const avCheckpointName = "meta.txt"

// keepZips restricts the diff to payload objects; checkpoints and sidecars
// in the same directory never enter the delete set.
func keepZips(name string) bool {
	return strings.HasSuffix(name, ".zip")
}

// LandingSolar mirrors the solar suitability dataset: one versioned asset
// from a STAC item. stacURL empty selects the default upstream.
func LandingSolar(ctx context.Context, env *Env, stacURL string) (diffsync.Result, error) {
	if stacURL == "" {
		stacURL = DefaultSolarSTACURL
	}
	return env.record(ctx, "landing-solareignung", func() (diffsync.Result, error) {
		doc, err := env.Fetch.Get(ctx, stacURL)
		if err != nil {
			return diffsync.Result{}, err
		}
		expected, err := manifest.ParseSTACItem(doc, []string{solarAssetKey})
		if err != nil {
			return diffsync.Result{}, err
		}

		engine := &diffsync.Engine{
			Backend: env.Backend,
			Dir:     SolarLandingDir,
			Filter:  keepZips,
			Fetch:   env.Fetch.Entry,
			Workers: env.Workers,
			Logger:  env.logger(),
		}
		return engine.Run(ctx, expected)
	})
}

// LandingAV mirrors the cadastral survey zips listed in the upstream
// meta.txt (shapefile variants only; every area is published twice).
//
// maxAge > 0 enables the freshness gate: when the stored checkpoint was
// refreshed within the window, the sync is skipped entirely. After a fully
// successful sync the checkpoint is rewritten and stamped; a new meta.txt
// content additionally becomes a new version of the checkpoint, which is
// what downstream dependency checks compare against.
func LandingAV(ctx context.Context, env *Env, metaURL string, maxAge time.Duration) (diffsync.Result, error) {
	if metaURL == "" {
		metaURL = DefaultAVMetaURL
	}
	return env.record(ctx, "landing-av", func() (diffsync.Result, error) {
		checkpoint := artifact.NewFile(AVLandingDir+"/"+avCheckpointName, env.Backend)
		if maxAge > 0 {
			stale, err := artifact.IsStale(ctx, checkpoint, maxAge)
			if err != nil {
				return diffsync.Result{}, err
			}
			if !stale {
				env.logger().Info("landing is fresh, skipping sync",
					zap.String("dir", AVLandingDir),
					zap.Duration("max_age", maxAge))
				return diffsync.Result{}, nil
			}
		}

		doc, err := env.Fetch.Get(ctx, metaURL)
		if err != nil {
			return diffsync.Result{}, err
		}
		expected, err := manifest.ParseLines(string(doc), manifest.KeepSHP)
		if err != nil {
			return diffsync.Result{}, err
		}

		engine := &diffsync.Engine{
			Backend: env.Backend,
			Dir:     AVLandingDir,
			Filter:  keepZips,
			Fetch:   env.Fetch.Entry,
			Workers: env.Workers,
			Logger:  env.logger(),
		}
		res, err := engine.Run(ctx, expected)
		if err != nil || res.Failed() {
			// The checkpoint only ever describes a fully synced state.
			return res, err
		}

		if err := checkpointAV(ctx, env, checkpoint, doc); err != nil {
			return res, fmt.Errorf("record sync checkpoint: %w", err)
		}
		return res, nil
	})
}

// checkpointAV persists the synced meta.txt and its freshness stamp, and
// cuts a new checkpoint version when the content actually changed.
func checkpointAV(ctx context.Context, env *Env, checkpoint *artifact.File, doc []byte) error {
	versioned := artifact.NewVersionedFile(checkpoint.Path, env.Backend, env.scheme())
	latest, err := versioned.LatestVersion(ctx)
	if err != nil {
		return err
	}
	changed := latest == ""
	if !changed {
		prev, err := versioned.Read(ctx, latest)
		if err != nil {
			return err
		}
		changed = string(prev) != string(doc)
	}
	if changed {
		if err := versioned.Write(ctx, doc, versionToday(env)); err != nil {
			return err
		}
	}

	if err := checkpoint.Write(ctx, doc); err != nil {
		return err
	}
	return artifact.WriteAsofNow(ctx, checkpoint)
}
