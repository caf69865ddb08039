// Package version exposes the build metadata stamped into the statusd
// binary. Release builds overwrite the vars below with ldflags:
//
//	-X .../internal/version.Version=1.4.0
//	-X .../internal/version.Commit=abc1234
//	-X .../internal/version.Date=2026-08-27T10:00:00Z
//
// An unstamped binary reports "dev", which the updater treats as the
// dev-build channel.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the snapshot served by the CLI, the API, and the build-info metric.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the bare version string.
func String() string {
	return Version
}
