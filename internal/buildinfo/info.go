// Package buildinfo holds the version stamped in at link time:
//
//	go build -ldflags "-X github.com/gracebooks/gracebooks/internal/buildinfo.Version=v1.2.0 ..."
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build for --version and the health endpoint.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
