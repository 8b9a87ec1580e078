package relay

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const modulePath = "github.com/ambiyansyah-risyal/relay"

// develVersion is reported when the module is built from a checkout rather
// than a tagged release.
const develVersion = "(devel)"

var (
	// Version is the module version recorded by the Go toolchain from the
	// release tag. Override with -ldflags "-X ...relay.Version=..." if needed.
	Version = moduleVersion()
	// GitCommit is the git SHA (inject via -ldflags at build time).
	GitCommit = "unknown"
	// BuildDate is the build timestamp (inject via -ldflags).
	BuildDate = "unknown"
	// GoVersion records the Go toolchain version used.
	GoVersion = runtime.Version()
)

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("relay %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, GoVersion)
}

// GetVersionInfo returns version metadata as a map for logging / metrics.
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return develVersion
	}
	return versionFrom(info)
}

// versionFrom finds this module in build info, either as the main module or
// as a (possibly replaced) dependency.
func versionFrom(info *debug.BuildInfo) string {
	if info.Main.Path == modulePath && info.Main.Version != "" {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version != "" {
			return dep.Version
		}
	}
	return develVersion
}
