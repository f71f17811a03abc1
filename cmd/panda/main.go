// Package main provides the panda CLI: landing syncs, refine transforms and
// artifact-store inspection over a local or GCS backend.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/folimar/geopanda/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode classifies an error: misconfiguration and bad input are the
// user's to fix (1), everything else is a system failure (2).
func exitCode(err error) int {
	for _, userErr := range []error{
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrBucketEmpty,
		types.ErrWorkersInvalid,
		types.ErrCredentialsNotSet,
		types.ErrInvalidVersionFormat,
	} {
		if errors.Is(err, userErr) {
			return exitUserError
		}
	}
	return exitSysError
}
