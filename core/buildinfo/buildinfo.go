// Package buildinfo reports what binary is running. The variables are set
// with -ldflags, for example:
//
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Date=2025-08-30T12:00:00Z'
//
// Builds without ldflags fall back to the VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromVCS(info)
}

func fillFromVCS(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "local" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > 12 {
					Commit = Commit[:12]
				}
			}
		case "vcs.time":
			if Date == "" {
				Date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && Commit != "local" && !strings.HasSuffix(Commit, "-dirty") {
		Commit += "-dirty"
	}
}

// String renders "name version (commit) date" for --version output.
func String(name string) string {
	s := name + " " + Version + " (" + Commit + ")"
	if Date != "" {
		s += " " + Date
	}
	return s
}
