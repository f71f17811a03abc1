package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/artifact"
	"github.com/folimar/geopanda/internal/deps"
	"github.com/folimar/geopanda/internal/diffsync"
	"github.com/folimar/geopanda/internal/gdal"
	"github.com/folimar/geopanda/internal/tiles"
	"github.com/folimar/geopanda/pkg/types"
)

// Refined artifact paths.
const (
	SolarRefinedPath    = "refined/solareignung/solareignung.fgb"
	GebaeudeRefinedPath = "refined/gebaeude/gebaeude.gpkg"
)

// gebaeudeGrid subdivides the national extent for the buildings refine. 4x4
// keeps each tile's working set around what a single ogr2ogr run handles
// comfortably.
const gebaeudeGridSize = 4

// RefineSolar derives the FlatGeobuf rendition of the solar suitability
// dataset from its landing asset. The transform only runs when the
// dependency check says the latest landing version is not yet covered by the
// latest refined version; the output is stamped with the run date and its
// dependency log records the decision-time source version.
func RefineSolar(ctx context.Context, env *Env) error {
	_, err := env.record(ctx, "refine-solareignung", func() (diffsync.Result, error) {
		source := artifact.NewVersionedFile(SolarLandingDir+"/"+solarAssetKey, env.Backend, env.scheme())
		sink := artifact.NewVersionedFile(SolarRefinedPath, env.Backend, env.scheme())

		decision, err := deps.Check(ctx, sink, []*artifact.VersionedFile{source})
		if err != nil {
			return diffsync.Result{}, err
		}
		if !decision.Required {
			env.logger().Info("refined artifact is up to date", zap.String("sink", sink.Path))
			return diffsync.Result{}, nil
		}
		srcVersion, ok := decision.SourceVersions[source.Path]
		if !ok {
			return diffsync.Result{}, fmt.Errorf("%w: %s", types.ErrMissingSourceVersion, source.Path)
		}

		srcPath, err := source.GDALPath(srcVersion)
		if err != nil {
			return diffsync.Result{}, err
		}

		scratch, err := os.MkdirTemp("", "refine-solar-*")
		if err != nil {
			return diffsync.Result{}, err
		}
		defer os.RemoveAll(scratch)

		outPath := filepath.Join(scratch, "solareignung.fgb")
		job := gdal.Job{
			Source:      gdal.VSIZip(srcPath),
			Dest:        outPath,
			Format:      "FlatGeobuf",
			Layer:       "solareignung",
			SkipFileGDB: true,
		}
		if err := env.Transform.Translate(ctx, job); err != nil {
			return diffsync.Result{}, err
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			return diffsync.Result{}, err
		}
		outVersion := versionToday(env)
		if err := sink.Write(ctx, data, outVersion); err != nil {
			return diffsync.Result{}, err
		}
		if err := deps.UpdateLog(ctx, sink, outVersion, decision); err != nil {
			return diffsync.Result{}, err
		}
		env.logger().Info("refined artifact written",
			zap.String("sink", sink.Path),
			zap.String("version", outVersion),
			zap.String("source_version", srcVersion))
		return diffsync.Result{Fetched: 1}, nil
	})
	return err
}

// RefineGebaeude derives the nationwide buildings layer from the cadastral
// survey landing zone. The extent is tiled, each tile clipped out of the
// landing data with an ogr2ogr -spat window on a bounded pool, the chunks
// merged and the result published as today's version. Staleness is decided
// against the landing checkpoint's version history: a new meta.txt content
// means the zip set changed and the layer must be rebuilt.
func RefineGebaeude(ctx context.Context, env *Env) error {
	_, err := env.record(ctx, "refine-gebaeude", func() (diffsync.Result, error) {
		source := artifact.NewVersionedFile(AVLandingDir+"/"+avCheckpointName, env.Backend, env.scheme())
		sink := artifact.NewVersionedFile(GebaeudeRefinedPath, env.Backend, env.scheme())

		decision, err := deps.Check(ctx, sink, []*artifact.VersionedFile{source})
		if err != nil {
			return diffsync.Result{}, err
		}
		if !decision.Required {
			env.logger().Info("refined artifact is up to date", zap.String("sink", sink.Path))
			return diffsync.Result{}, nil
		}
		if _, ok := decision.SourceVersions[source.Path]; !ok {
			return diffsync.Result{}, fmt.Errorf("%w: %s", types.ErrMissingSourceVersion, source.Path)
		}

		outVersion := versionToday(env)
		dest, err := env.scheme().Construct(sink.Path, outVersion)
		if err != nil {
			return diffsync.Result{}, err
		}

		// A scratch dir keyed on the output version survives a failed run, so
		// the rerun resumes from the chunks already written.
		scratch := filepath.Join(env.scratchDir(), "refine-gebaeude-"+outVersion)

		landing := env.Backend.GDALPath(AVLandingDir)
		runner := &tiles.Runner{
			Backend: env.Backend,
			Dest:    dest,
			Scratch: scratch,
			Workers: env.Workers,
			Retry:   env.Retry,
			Logger:  env.logger(),
			Process: func(ctx context.Context, tile tiles.Tile, chunkPath string) error {
				return env.Transform.Translate(ctx, gdal.Job{
					Source: landing,
					Dest:   chunkPath,
					Format: "GPKG",
					Layer:  "gebaeude",
					Extra: []string{"-spat",
						fmt.Sprintf("%.0f", tile.XMin), fmt.Sprintf("%.0f", tile.YMin),
						fmt.Sprintf("%.0f", tile.XMax), fmt.Sprintf("%.0f", tile.YMax)},
				})
			},
			Merge: func(ctx context.Context, chunkPaths []string, outPath string) error {
				return mergeChunks(ctx, env.Transform, chunkPaths, outPath)
			},
		}

		grid := tiles.Grid(tiles.SwissLV95, gebaeudeGridSize, gebaeudeGridSize)
		if err := runner.Run(ctx, grid); err != nil {
			return diffsync.Result{}, err
		}
		if err := deps.UpdateLog(ctx, sink, outVersion, decision); err != nil {
			return diffsync.Result{}, err
		}
		env.logger().Info("refined artifact written",
			zap.String("sink", sink.Path),
			zap.String("version", outVersion),
			zap.Int("tiles", len(grid)))
		return diffsync.Result{Fetched: 1}, nil
	})
	return err
}

// mergeChunks appends every chunk into one output dataset. A chunk whose
// tile contained no features never got written; those are skipped.
func mergeChunks(ctx context.Context, transform gdal.Transformer, chunkPaths []string, outPath string) error {
	first := true
	for _, chunk := range chunkPaths {
		if _, err := os.Stat(chunk); os.IsNotExist(err) {
			continue
		}
		job := gdal.Job{
			Source: chunk,
			Dest:   outPath,
			Format: "GPKG",
			Layer:  "gebaeude",
			Append: !first,
		}
		if err := transform.Translate(ctx, job); err != nil {
			return fmt.Errorf("merge %s: %w", filepath.Base(chunk), err)
		}
		first = false
	}
	return nil
}
