package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

// Module is the import path this library is built from.
const Module = "github.com/kbukum/structured"

// Version is set at build time with
// -ldflags "-X github.com/kbukum/structured/version.Version=v1.2.3".
// When unset, the version is read from the embedding binary's build info.
var Version = ""

const devel = "(devel)"

// Info describes the library build linked into the running binary.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

var (
	once   sync.Once
	cached Info
)

// Get returns the build information, computed once.
func Get() Info {
	once.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		cached = resolve(Version, bi, ok)
	})
	return cached
}

// Short returns the version string used for telemetry, e.g. "v0.3.1" or
// "(devel)-abc1234".
func Short() string {
	info := Get()
	if info.Version == devel && info.Revision != "" {
		s := info.Version + "-" + info.Revision
		if info.Dirty {
			s += "-dirty"
		}
		return s
	}
	return info.Version
}

// resolve prefers the ldflags value, then the dependency entry for Module
// (library use), then the main module (tests and tools built from this
// repository).
func resolve(override string, bi *debug.BuildInfo, ok bool) Info {
	info := Info{Version: devel}
	if !ok || bi == nil {
		if override != "" {
			info.Version = override
		}
		return info
	}
	info.GoVersion = bi.GoVersion
	switch {
	case override != "":
		info.Version = override
	case bi.Main.Path == Module && bi.Main.Version != "":
		info.Version = bi.Main.Version
	default:
		for _, dep := range bi.Deps {
			if dep.Path != Module {
				continue
			}
			if dep.Replace != nil && dep.Replace.Version != "" {
				info.Version = dep.Replace.Version
			} else if dep.Version != "" {
				info.Version = dep.Version
			}
			break
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
			if len(info.Revision) > 7 {
				info.Revision = info.Revision[:7]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	info.Version = strings.TrimSpace(info.Version)
	if info.Version == "" {
		info.Version = devel
	}
	return info
}
