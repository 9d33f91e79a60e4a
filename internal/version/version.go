package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = "unknown"
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// FillFromBuildInfo заполняет незаданные ldflags значения из debug.ReadBuildInfo
func FillFromBuildInfo() {
	if GoVersion == "unknown" {
		GoVersion = runtime.Version()
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "0.1.0-dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "unknown" {
				GitCommit = s.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				BuildTime = s.Value
			}
		}
	}
}

func Short() string {
	return fmt.Sprintf("trash-expiry %s", Version)
}

func Full() string {
	return fmt.Sprintf("trash-expiry - freedesktop trash expiry\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s\n",
		Version, BuildTime, GitCommit, GoVersion)
}
