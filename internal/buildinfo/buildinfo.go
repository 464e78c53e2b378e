// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

import "fmt"

// Populated by -ldflags at build time; defaults used for local dev.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// String formats the build info on one line.
func String() string {
	return fmt.Sprintf("contentvault %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
