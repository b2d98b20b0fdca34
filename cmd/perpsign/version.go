package main

import "runtime/debug"

// Set at link time:
//
//	go build -ldflags "-X main.Version=v1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/perpsign
//
// Values left unset fall back to the VCS stamps the go tool embeds.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// BuildInfo formats the version as "<version> (<commit>) built <time>".
func BuildInfo() string {
	version, commit, built := Version, GitCommit, BuildTime
	if info, ok := readBuildInfo(); ok {
		commit, built = fromVCS(info, commit, built)
	}
	return version + " (" + commit + ") built " + built
}

// fromVCS fills commit and built from the go tool's VCS stamps when they
// were not set at link time. A commit from a modified tree gets "-dirty".
func fromVCS(info *debug.BuildInfo, commit, built string) (string, string) {
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value[:min(len(s.Value), 7)]
		case "vcs.time":
			if built == "unknown" && s.Value != "" {
				built = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if commit == "unknown" && revision != "" {
		commit = revision
		if dirty {
			commit += "-dirty"
		}
	}
	return commit, built
}
