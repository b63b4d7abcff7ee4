// Package version reports build information for wifiprov binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// ModulePath is the module the binaries are built from
const ModulePath = "github.com/muurk/wifiprov"

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/wifiprov/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/wifiprov/internal/version.Commit=abc123"
//
// Unset values are filled from VCS build info, then fall back to "dev".
var (
	// Version is the release version
	Version = ""
	// Commit is the short VCS revision, suffixed "-dirty" for modified trees
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			apply(info.Settings)
		}
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// apply fills unset values from VCS build settings
func apply(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			vcs[s.Key] = s.Value
		}
	}

	if Commit == "" && vcs["vcs.revision"] != "" {
		Commit = vcs["vcs.revision"]
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if vcs["vcs.modified"] == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			Version = "dev-" + t.UTC().Format("20060102-150405")
		}
	}
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Details returns the multi-line output of "wifiprov version"
func Details(binary string) string {
	return fmt.Sprintf("%s %s\n  module: %s\n  go:     %s %s/%s\n",
		binary, Full(), ModulePath, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the provisioning client in HTTP requests
func UserAgent() string {
	return "wifiprov/" + Version
}
