// Package manifest parses the upstream indexes that drive diff-sync: the
// line-oriented meta.txt published next to the cadastral survey zips, and
// the STAC item documents of the federal geoportal. Both reduce to the same
// thing, a Manifest mapping identities to source locators.
package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/folimar/geopanda/pkg/types"
)

// lineDateFormat is the timestamp format of meta.txt records.
const lineDateFormat = "2006-01-02"

// stampFormat is the identity prefix derived from upstream timestamps.
const stampFormat = "20060102"

// ParseLines parses line-oriented "<url> <YYYY-MM-DD>" records. keep filters
// by URL (nil keeps everything); blank lines are skipped, anything else
// malformed is an error. The identity of each record is the upstream
// timestamp plus the last four URL segments joined by underscores:
//
//	https://.../DM01AVCH24D/SHP/AG/4022.zip 2023-11-16
//	→ 20231116_DM01AVCH24D_SHP_AG_4022.zip
//
// Embedding the timestamp makes a newer upstream record a new identity, so
// diff-sync re-fetches updated zips and drops the stale ones.
func ParseLines(text string, keep func(url string) bool) (types.Manifest, error) {
	m := types.Manifest{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		url, dateStr, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("manifest line %d: want \"<url> <date>\", got %q", i+1, line)
		}
		if keep != nil && !keep(url) {
			continue
		}
		updated, err := time.Parse(lineDateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: bad date %q: %w", i+1, dateStr, err)
		}
		entry := types.ManifestEntry{
			Identity: updated.Format(stampFormat) + "_" + lineIdentity(url),
			Href:     url,
			Updated:  updated,
		}
		m[entry.Identity] = entry
	}
	return m, nil
}

// lineIdentity joins the last four URL segments by underscores, which is
// unique across the upstream dataset (format, canton and area number).
func lineIdentity(url string) string {
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	if len(parts) > 4 {
		parts = parts[len(parts)-4:]
	}
	return strings.Join(parts, "_")
}

// KeepSHP keeps only records whose URL points at a shapefile zip. Each area
// is published twice with identical content (SHP and ITF); only the
// shapefile variant is of interest.
func KeepSHP(url string) bool {
	return strings.Contains(url, "SHP")
}
