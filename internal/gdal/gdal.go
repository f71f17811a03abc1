// Package gdal shells out to ogr2ogr for the vector transformations the
// refine pipelines need: reprojection, geometry repair and layer merging.
// The tool is invoked as an external binary, so the Transformer interface
// exists to keep pipeline tests free of a GDAL installation.
package gdal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultSRS is the projected coordinate system all refined outputs use
// (Swiss LV95).
const DefaultSRS = "EPSG:2056"

// Transformer runs one vector translation job.
type Transformer interface {
	Translate(ctx context.Context, job Job) error
}

// Job describes one ogr2ogr invocation.
type Job struct {
	// Source and Dest are GDAL dataset locators; they may use virtual file
	// systems such as /vsizip/ or /vsigs/.
	Source string
	Dest   string

	// Format selects the output driver (e.g. "GPKG"). Empty lets ogr2ogr
	// guess from the destination extension.
	Format string

	// Layer renames the output layer (-nln). Empty keeps the source name.
	Layer string

	// TargetSRS reprojects the output (-t_srs). Empty selects DefaultSRS.
	TargetSRS string

	// Append adds to an existing destination instead of overwriting it.
	Append bool

	// SkipFileGDB disables the proprietary FileGDB driver so .gdb sources
	// always open through the built-in OpenFileGDB reader.
	SkipFileGDB bool

	// Extra is appended verbatim after the generated arguments.
	Extra []string
}

// Args renders the ogr2ogr argument list for the job. Geometry repair
// (-makevalid), multi-geometry promotion and -skipfailures are always on:
// upstream cadastral data routinely carries self-intersections and mixed
// single/multi geometries, and one bad feature must not sink a whole area.
func (j Job) Args() []string {
	args := []string{}
	if j.Format != "" {
		args = append(args, "-f", j.Format)
	}
	if j.Append {
		args = append(args, "-append")
	} else {
		args = append(args, "-overwrite")
	}
	srs := j.TargetSRS
	if srs == "" {
		srs = DefaultSRS
	}
	args = append(args, "-t_srs", srs)
	if j.Layer != "" {
		args = append(args, "-nln", j.Layer)
	}
	args = append(args,
		"-makevalid",
		"-nlt", "PROMOTE_TO_MULTI",
		"-skipfailures",
	)
	if j.SkipFileGDB {
		args = append(args, "--config", "OGR_SKIP", "FileGDB")
	}
	args = append(args, j.Extra...)
	args = append(args, j.Dest, j.Source)
	return args
}

// OGR runs jobs through the ogr2ogr binary.
type OGR struct {
	// Binary is the executable to invoke. Empty means "ogr2ogr" on PATH.
	Binary string

	Logger *zap.Logger
}

var _ Transformer = (*OGR)(nil)

// Translate runs the job. A non-zero exit returns an error carrying the
// tool's combined output, which is where ogr2ogr reports what went wrong.
func (o *OGR) Translate(ctx context.Context, job Job) error {
	binary := o.Binary
	if binary == "" {
		binary = "ogr2ogr"
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	args := job.Args()
	logger.Debug("running ogr2ogr",
		zap.String("source", job.Source),
		zap.String("dest", job.Dest),
		zap.String("args", strings.Join(args, " ")))

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ogr2ogr %s -> %s: %w: %s",
			job.Source, job.Dest, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// VSIZip wraps path in GDAL's zip virtual file system, optionally descending
// into inner entries: VSIZip("/data/a.zip", "a.gdb") is "/vsizip//data/a.zip/a.gdb".
func VSIZip(path string, inner ...string) string {
	parts := append([]string{"/vsizip/" + path}, inner...)
	return strings.Join(parts, "/")
}
