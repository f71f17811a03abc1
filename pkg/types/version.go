package types

import "errors"

// VersioningScheme maps a logical file path plus a version string to the
// physical stored name and back, and defines the ordering of versions.
//
// The round-trip invariant must hold for every valid version v and path p:
// Extract(Construct(p, v)) == v.
type VersioningScheme interface {
	// Validate returns ErrInvalidVersionFormat if version is malformed.
	// A malformed version is a programming error, never a runtime condition
	// to be retried or skipped.
	Validate(version string) error

	// Construct returns the versioned object name for path at version.
	// Fails with ErrInvalidVersionFormat on a malformed version.
	Construct(path, version string) (string, error)

	// Extract returns the version encoded in name. ok is false when name
	// carries no version recognized by this scheme.
	Extract(name string) (version string, ok bool)

	// Compare orders two valid versions: -1 if a is older than b, 0 if
	// equal, +1 if newer. Both arguments must pass Validate.
	Compare(a, b string) (int, error)
}

// Versioning and dependency tracking errors.
var (
	// ErrInvalidVersionFormat marks a version string that fails the scheme
	// validator. Fatal; never retried.
	ErrInvalidVersionFormat = errors.New("invalid version format")

	// ErrMissingSourceVersion marks a declared dependency with no stored
	// version at all. Fatal precondition failure for the sink's pipeline run.
	ErrMissingSourceVersion = errors.New("source artifact has no stored version")
)
