// Package buildinfo carries version data stamped at link time with
// -ldflags "-X routekit/internal/buildinfo.Version=...".
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuiltAt   string `json:"builtAt,omitempty"`
	GoVersion string `json:"goVersion"`
}

func Get() Build {
	return Build{Version: Version, Commit: Commit, BuiltAt: BuiltAt, GoVersion: runtime.Version()}
}

// String renders "version (commit, go)" for --version output.
func (b Build) String() string {
	if b.Commit == "" {
		return fmt.Sprintf("%s (%s)", b.Version, b.GoVersion)
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, b.Commit, b.GoVersion)
}
