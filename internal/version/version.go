// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/MrSnakeDoc/atlas/internal/version.Version=v0.1.0".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String is the one-line build description.
func String() string {
	return fmt.Sprintf("atlas %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
