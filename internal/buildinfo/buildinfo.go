// Package buildinfo exposes the version stamped into the prisme binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/prismeai/prisme-cli/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   DisplayVersion(),
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// DisplayVersion returns "dev", or the version with a "v" prefix. Unset
// versions fall back to the module version of `go install` builds.
func DisplayVersion() string {
	v := strings.TrimSpace(Version)
	if v == "" || v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}
	switch {
	case v == "" || v == "dev" || v == "(devel)":
		return "dev"
	case strings.HasPrefix(v, "v"):
		return v
	case v[0] >= '0' && v[0] <= '9':
		return "v" + v
	}
	return v
}

// UserAgent is sent with API requests.
func UserAgent() string {
	return "prisme-cli/" + DisplayVersion() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
