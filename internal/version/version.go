// Package version carries build metadata set with -ldflags at link time.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info is the build metadata served on /version.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GoVersion returns the Go runtime version string.
func GoVersion() string { return runtime.Version() }

// Get returns the build metadata for service.
func Get(service string) Info {
	return Info{
		Service:   service,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: GoVersion(),
	}
}

// String renders the multi-line form printed by the version command.
func (i Info) String() string {
	return fmt.Sprintf("%s %s\n  commit:     %s\n  built:      %s\n  go version: %s\n",
		i.Service, i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}
