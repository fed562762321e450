// Package version exposes the build version injected at link time.
package version

import (
	"runtime/debug"
	"strings"
)

// These variables are intended to be populated at build time via -ldflags,
// e.g. -X github.com/tis24dev/hypersave/internal/version.Version=v1.2.0
var (
	// Version holds the semantic version of the binary.
	Version = "0.0.0-dev"

	// Commit holds the VCS commit hash used to build the binary (optional).
	Commit = ""

	// Date holds the build timestamp (optional).
	Date = ""
)

// String returns the effective version string used across the application.
// Preference order: ldflags value, main module version from build info,
// development placeholder. Any leading "v" prefix is stripped.
func String() string {
	v := strings.TrimSpace(Version)

	if v == "" || v == "0.0.0-dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}
	if v == "" {
		v = "0.0.0-dev"
	}
	return strings.TrimPrefix(v, "v")
}
