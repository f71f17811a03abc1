// Package geopanda holds module-wide metadata.
package geopanda

// Version is the released version of the panda toolchain.
const Version = "0.3.0"
