package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveOverride(t *testing.T) {
	bi := &debug.BuildInfo{GoVersion: "go1.26.0", Main: debug.Module{Path: "example.com/app", Version: "v9.9.9"}}
	info := resolve("v1.2.3", bi, true)
	if info.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", info.Version)
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}

func TestResolveDependency(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "example.com/app", Version: "v9.9.9"},
		Deps: []*debug.Module{
			{Path: "github.com/rs/zerolog", Version: "v1.34.0"},
			{Path: Module, Version: "v0.4.0"},
		},
	}
	if got := resolve("", bi, true).Version; got != "v0.4.0" {
		t.Errorf("Version = %q, want v0.4.0", got)
	}

	bi.Deps[1].Replace = &debug.Module{Path: "../structured", Version: "v0.4.1"}
	if got := resolve("", bi, true).Version; got != "v0.4.1" {
		t.Errorf("replaced Version = %q, want v0.4.1", got)
	}
}

func TestResolveMainModule(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: Module, Version: devel},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := resolve("", bi, true)
	if info.Version != devel {
		t.Errorf("Version = %q", info.Version)
	}
	if info.Revision != "0123456" || !info.Dirty {
		t.Errorf("vcs = %q dirty=%v", info.Revision, info.Dirty)
	}
}

func TestResolveNoBuildInfo(t *testing.T) {
	if got := resolve("", nil, false).Version; got != devel {
		t.Errorf("Version = %q, want %q", got, devel)
	}
}

func TestShort(t *testing.T) {
	if Short() == "" {
		t.Error("Short() returned empty string")
	}
	if Get() != Get() {
		t.Error("Get() is not stable")
	}
}
