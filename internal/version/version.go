// Package version reports build information set through ldflags:
//
//	go build -ldflags "-X github.com/rickgao/lotto-engine/internal/version.Version=1.2.0 \
//	                   -X github.com/rickgao/lotto-engine/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/lotto-engine/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "runtime"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the JSON form served by /health and printed by lottoctl.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	Go        string `json:"go"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		Go:        runtime.Version(),
	}
}

// String returns a one-line version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime + " " + runtime.Version()
}
