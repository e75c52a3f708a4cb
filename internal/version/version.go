// Package version holds build metadata reported by --version.
package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/steptimer/internal/version.Version=v0.3.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
