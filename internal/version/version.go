package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "none"
	// Date is set via ldflags at build time
	Date = "unknown"
)

// Get returns the version string, falling back to the module version
// recorded by go install
func Get() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}
	return Version
}

// GetFull returns full version information
func GetFull() string {
	return fmt.Sprintf("kitlend version %s (commit: %s, built: %s)", Get(), Commit, Date)
}
