package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/docfs/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Fingerprint identifies the tool build that produced a cached result.
// Upgrading the tool changes the fingerprint and invalidates every cache entry.
func Fingerprint() string {
	return fmt.Sprintf("docfs/%s+%s", Version, GitCommit)
}
