// Package version embeds build version information.
//
// Version and build metadata are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/coursegen/version.Version=1.2.0"
//
// and fall back to VCS build info stamped by the Go toolchain.
package version

import (
	"runtime/debug"
	"time"
)

var (
	// Version is set at build time using -ldflags.
	Version = "dev"
	// GitCommit is set at build time using -ldflags.
	GitCommit = ""
	// BuildTime is set at build time using -ldflags (RFC 3339).
	BuildTime = ""
)

// Info represents build version information.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GoVersion string    `json:"go_version,omitempty"`
	BuildDate time.Time `json:"build_date,omitempty"`
	IsDirty   bool      `json:"is_dirty,omitempty"`
}

// Get returns version information, preferring ldflags values and filling
// gaps from the binary's embedded VCS build info.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = buildInfo.GoVersion
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = setting.Value
				if len(info.GitCommit) > 7 {
					info.GitCommit = info.GitCommit[:7]
				}
			}
		case "vcs.modified":
			info.IsDirty = setting.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	return info
}

// Short returns the version string, suffixed with the commit when one
// is known.
func Short() string {
	info := Get()
	if info.GitCommit == "" {
		return info.Version
	}
	return info.Version + "+" + info.GitCommit
}
