// Package deps decides whether a derived artifact must be recomputed from
// its declared sources, and maintains the dependency version log that the
// decision is based on. Tracking is single-level and declarative: each sink
// declares its direct inputs, the staleness check is O(len(sources)), and
// every pipeline stage is independently restartable.
package deps

import (
	"context"
	"fmt"

	"github.com/folimar/geopanda/internal/artifact"
	"github.com/folimar/geopanda/pkg/types"
)

// LogKey is the sidecar key holding the dependency version log: a mapping
// from each source's logical path to the source version used for this sink
// version.
const LogKey = "dependency_version_log"

// Decision is the outcome of a staleness check. SourceVersions holds the
// source versions observed at decision time; UpdateLog writes exactly these,
// never re-queried versions, so a source updated mid-transform is not
// silently treated as already covered.
type Decision struct {
	Required       bool
	SourceVersions map[string]string
}

// Check reports whether sink must be recomputed from sources.
//
// A sink with no stored version always requires computation. Otherwise every
// source must have at least one stored version (ErrMissingSourceVersion is a
// fatal precondition failure, never "not required"), and computation is
// required when a source is missing from the sink's log or its latest
// version orders strictly after the logged one.
func Check(ctx context.Context, sink *artifact.VersionedFile, sources []*artifact.VersionedFile) (Decision, error) {
	latestSink, err := sink.LatestVersion(ctx)
	if err != nil {
		return Decision{}, err
	}

	if latestSink == "" {
		// Nothing computed yet. Capture whatever source versions exist; a
		// genuinely absent source fails later, when the transform reads it.
		observed := make(map[string]string, len(sources))
		for _, src := range sources {
			v, err := src.LatestVersion(ctx)
			if err != nil {
				return Decision{}, err
			}
			if v != "" {
				observed[src.Path] = v
			}
		}
		return Decision{Required: true, SourceVersions: observed}, nil
	}

	md, err := sink.ReadMetadata(ctx, latestSink)
	if err != nil {
		return Decision{}, err
	}
	logged := dependencyLog(md)

	required := false
	observed := make(map[string]string, len(sources))
	for _, src := range sources {
		latest, err := src.LatestVersion(ctx)
		if err != nil {
			return Decision{}, err
		}
		if latest == "" {
			return Decision{}, fmt.Errorf("%w: %s", types.ErrMissingSourceVersion, src.Path)
		}
		observed[src.Path] = latest

		loggedVersion, ok := logged[src.Path]
		if !ok {
			required = true
			continue
		}
		c, err := src.Scheme.Compare(loggedVersion, latest)
		if err != nil {
			return Decision{}, fmt.Errorf("compare versions of %s: %w", src.Path, err)
		}
		if c < 0 {
			required = true
		}
	}
	return Decision{Required: required, SourceVersions: observed}, nil
}

// UpdateLog records the decision's source versions as the dependency log of
// the given sink version. The previous log is fully replaced; other sidecar
// keys of that version are preserved. Call only after the sink's payload
// write has succeeded.
func UpdateLog(ctx context.Context, sink *artifact.VersionedFile, sinkVersion string, d Decision) error {
	md, err := sink.ReadMetadata(ctx, sinkVersion)
	if err != nil {
		return err
	}
	log := make(map[string]any, len(d.SourceVersions))
	for path, version := range d.SourceVersions {
		log[path] = version
	}
	md[LogKey] = log
	return sink.WriteMetadata(ctx, md, sinkVersion)
}

// dependencyLog extracts the version log mapping from sidecar metadata.
func dependencyLog(md artifact.Metadata) map[string]string {
	raw, ok := md[LogKey].(map[string]any)
	if !ok {
		return nil
	}
	log := make(map[string]string, len(raw))
	for path, v := range raw {
		if s, ok := v.(string); ok {
			log[path] = s
		}
	}
	return log
}
