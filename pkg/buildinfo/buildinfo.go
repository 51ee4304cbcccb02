// Package buildinfo exposes the prekit version and compares it against
// minimum versions declared by hook manifests.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

// BinaryVersion is set at build time via -ldflags. Defaults to "dev".
var BinaryVersion = "dev"

// Info summarises the running binary.
type Info struct {
	Version       string `json:"version"`
	ModuleVersion string `json:"module_version,omitempty"`
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
}

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Current returns build information for the running binary.
func Current() Info {
	return Info{
		Version:       BinaryVersion,
		ModuleVersion: ModuleVersion(),
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Satisfies reports whether the running version meets minimum.
// Development builds and empty or unparsable minimums always satisfy.
func Satisfies(minimum string) bool {
	return versionSatisfies(BinaryVersion, minimum)
}

func versionSatisfies(current, minimum string) bool {
	minimum = canonical(minimum)
	if minimum == "" {
		return true
	}
	current = canonical(current)
	if current == "" {
		return true
	}
	return semver.Compare(current, minimum) >= 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "dev" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
