// Package version exposes the build identity of a globwalk binary.
package version

import (
	"fmt"
	"runtime"
)

// Build identity, overridden at link time. A make build injects these via
//
//	-X github.com/Aman-CERP/globwalk/pkg/version.Version=$(VERSION)
//
// and likewise for Commit and Date. Untouched values mark a development
// build straight from go run or go test.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo carries the full build identity in a JSON-friendly shape.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String renders the one-line human form used by the version command.
func String() string {
	return fmt.Sprintf("globwalk %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}

// Short returns the bare version.
func Short() string { return Version }

// GetInfo snapshots the build identity plus the running platform.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
