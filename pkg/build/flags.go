// SPDX-License-Identifier: MIT
// Package build exposes metadata embedded via -ldflags at compile time:
// application name, build timestamp, commit hash and semantic version.
// Development builds without ldflags report "dev" values.
package build

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// Info holds the resolved build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Get returns the build metadata, substituting development defaults for any
// value not set by the linker.
func Get() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "hapticsync"
	}
	if info.Time == "" {
		info.Time = "unknown"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
