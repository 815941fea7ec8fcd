// Package version provides centralized version information for the evalops
// CLI.
//
// Build-time injection:
//
//	-ldflags "-X evalops/internal/version.version=v1.0.0 -X evalops/internal/version.commit=abc123 -X evalops/internal/version.buildTime=2026-01-01T00:00:00Z"
package version

import (
	"fmt"
	"strings"
)

// These variables are set via ldflags during build.
//
//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is the name displayed in version output.
const ApplicationName = "evalops CLI"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Info encapsulates all version-related information with proper defaults.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Get returns the version information, applying defaults for unset fields.
func Get() Info {
	info := Info{Version: version, Commit: commit, BuildTime: buildTime}
	if info.Version == "" {
		info.Version = DefaultVersion
	}
	if info.Commit == "" {
		info.Commit = DefaultCommit
	}
	if info.BuildTime == "" {
		info.BuildTime = DefaultBuildTime
	}
	return info
}

// Short returns just the version string.
func (i Info) Short() string {
	return i.Version
}

// Full returns the multi-line version output.
func (i Info) Full() string {
	var sb strings.Builder
	sb.WriteString(ApplicationName)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Version: %s\n", i.Version))
	sb.WriteString(fmt.Sprintf("Commit: %s\n", i.Commit))
	sb.WriteString(fmt.Sprintf("Built: %s\n", i.BuildTime))
	return sb.String()
}
