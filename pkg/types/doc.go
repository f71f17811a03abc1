// Package types defines the storage backend and versioning scheme contracts,
// the configuration type, manifest entries, and standard errors for the
// geopanda artifact store. Implementations live under internal/; pipelines
// and the CLI program against the interfaces declared here.
package types
