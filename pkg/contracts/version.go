package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version is the release of the server and the edustat CLI.
	Version = "1.0.0"

	// APIVersion versions the REST routes and the websocket message shapes.
	// Sessions report it in their welcome message.
	APIVersion = "v1"

	// DataFormatVersion versions the layout of the data directory: the six
	// CSV files with their region column, plus the province GeoJSON.
	DataFormatVersion = "v1"
)

// Set with -ldflags "-X edudash/pkg/contracts.BuildTime=..." at release time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is what /api/version and `edustat --version` describe.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	DataFormat string `json:"data_format"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// GetVersionInfo collects version details. Without ldflags the commit falls back
// to the VCS stamp the go tool embeds in module builds.
func GetVersionInfo() VersionInfo {
	commit := GitCommit
	if commit == "unknown" {
		if rev, ok := vcsRevision(); ok {
			commit = rev
		}
	}
	return VersionInfo{
		Version:    Version,
		APIVersion: APIVersion,
		DataFormat: DataFormatVersion,
		BuildTime:  BuildTime,
		GitCommit:  commit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("edudash v%s (api %s, data %s, commit %s, %s %s)",
		v.Version, v.APIVersion, v.DataFormat, shortCommit(v.GitCommit), v.GoVersion, v.Platform)
}

func vcsRevision() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value, true
		}
	}
	return "", false
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
