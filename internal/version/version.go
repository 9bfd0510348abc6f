// Package version holds build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, or the branch name for untagged builds.
	Version = "dev"

	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders "v1.2.0 (abc1234)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full adds the build date, toolchain and platform.
func (i Info) Full() string {
	return fmt.Sprintf("%s (%s) built %s with %s for %s", i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
