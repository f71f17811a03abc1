// Package version implements the filename versioning schemes used by the
// artifact store. The only scheme currently in use stamps files with an
// 8-digit YYYYMMDD day prefix: "20231116__solareignung_2056.gdb.zip".
package version

import (
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/folimar/geopanda/pkg/types"
)

// dayFormat is the reference layout for day-resolution version stamps.
const dayFormat = "20060102"

// separator joins the version stamp and the base filename.
const separator = "__"

// dayPattern matches the version prefix of a versioned object name.
var dayPattern = regexp.MustCompile(`(\d{8})__`)

// DayScheme is a VersioningScheme with day resolution. Versions are 8-digit
// YYYYMMDD strings; equal-length lexical order and chronological order
// coincide, but callers must use Compare, never raw string comparison.
type DayScheme struct{}

// Compile-time interface check.
var _ types.VersioningScheme = DayScheme{}

// Validate returns ErrInvalidVersionFormat unless version is exactly eight
// digits that round-trip through a calendar date parse.
func (DayScheme) Validate(v string) error {
	if len(v) != 8 {
		return fmt.Errorf("%w: want YYYYMMDD, got %q", types.ErrInvalidVersionFormat, v)
	}
	t, err := time.Parse(dayFormat, v)
	if err != nil || t.Format(dayFormat) != v {
		return fmt.Errorf("%w: want YYYYMMDD, got %q", types.ErrInvalidVersionFormat, v)
	}
	return nil
}

// Construct returns "dir/{version}__{basename}" for the given logical path.
func (s DayScheme) Construct(p, v string) (string, error) {
	if err := s.Validate(v); err != nil {
		return "", err
	}
	dir, base := path.Split(p)
	return dir + v + separator + base, nil
}

// Extract returns the version stamp embedded in name, if any.
func (DayScheme) Extract(name string) (string, bool) {
	m := dayPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Compare orders two versions chronologically.
func (s DayScheme) Compare(a, b string) (int, error) {
	ta, err := s.sortKey(a)
	if err != nil {
		return 0, err
	}
	tb, err := s.sortKey(b)
	if err != nil {
		return 0, err
	}
	return ta.Compare(tb), nil
}

// sortKey returns the parsed calendar date of a valid version.
func (s DayScheme) sortKey(v string) (time.Time, error) {
	if err := s.Validate(v); err != nil {
		return time.Time{}, err
	}
	return time.Parse(dayFormat, v)
}

// Today returns the current date formatted as a day version stamp. Output
// versions of recomputed artifacts are stamped with the run date.
func Today() string {
	return time.Now().Format(dayFormat)
}
