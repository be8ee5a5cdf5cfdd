package version

import "fmt"

// Name is the runtime's product name as reported by GetVersion.
const Name = "hyperspectral classification runtime"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the human-readable version line, e.g.
// "hyperspectral classification runtime dev (unknown, built unknown)".
func String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", Name, Version, GitSHA, BuildTime)
}
