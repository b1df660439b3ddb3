// Package version carries build information set through -ldflags.
package version

import "fmt"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Summary returns a human-friendly version string for CLI output.
func Summary() string {
	return fmt.Sprintf("%s (%s)", Version, CommitHash)
}
