package version

import (
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("version = %q, want %q", info.Version, Version)
	}
}

func TestShortIncludesCommit(t *testing.T) {
	short := Short()
	if !strings.HasPrefix(short, Version) {
		t.Errorf("short = %q, want prefix %q", short, Version)
	}
	if info := Get(); info.GitCommit != "" && !strings.Contains(short, info.GitCommit) {
		t.Errorf("short = %q missing commit %q", short, info.GitCommit)
	}
}
