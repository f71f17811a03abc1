package types

import "runtime"

// Config holds backend selection and parameters for constructing a
// StorageBackend and running pipelines.
type Config struct {
	// Backend selects the storage implementation: "local" or "gcs".
	Backend string `json:"backend" yaml:"backend"`

	// DataDir is the root directory of the local backend.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Bucket is the GCS bucket name. Required for the gcs backend.
	Bucket string `json:"bucket" yaml:"bucket"`

	// RootPrefix is an optional object key prefix inside the bucket.
	RootPrefix string `json:"root_prefix" yaml:"root_prefix"`

	// Workers bounds pipeline worker pools. Zero means one less than the
	// available hardware parallelism.
	Workers int `json:"workers" yaml:"workers"`
}

// Supported backend names.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendLocal: true,
	BackendGCS:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendGCS && c.Bucket == "" {
		return ErrBucketEmpty
	}
	if c.Workers < 0 {
		return ErrWorkersInvalid
	}
	return nil
}

// Parallelism returns the effective worker pool size: the configured value,
// or one less than the available hardware parallelism (at least 1) when
// unset, reserving one unit for the coordinating process.
func (c Config) Parallelism() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.GOMAXPROCS(0) - 1; n > 1 {
		return n
	}
	return 1
}
