package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withValues(t *testing.T, version, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, Commit
	Version, Commit = version, commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })
}

func TestApply(t *testing.T) {
	withValues(t, "", "")

	apply([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-10-18T09:30:00Z"},
		{Key: "GOOS", Value: "linux"},
	})

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Version != "dev-20261018-093000" {
		t.Errorf("Version = %q, want dev-20261018-093000", Version)
	}
}

func TestApply_KeepsLinkerValues(t *testing.T) {
	withValues(t, "v1.2.3", "abc123")

	apply([]debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}})

	if Full() != "v1.2.3 (commit: abc123)" {
		t.Errorf("Full() = %q", Full())
	}
}

func TestDetails(t *testing.T) {
	withValues(t, "v1.2.3", "abc123")

	got := Details("wifiprov")
	if !strings.HasPrefix(got, "wifiprov v1.2.3 (commit: abc123)\n") {
		t.Errorf("Details() = %q", got)
	}
	if !strings.Contains(got, "module: "+ModulePath) {
		t.Errorf("Details() missing module path: %q", got)
	}
	if UserAgent() != "wifiprov/v1.2.3" {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
