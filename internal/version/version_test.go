package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime }()

	Version, GitSHA, BuildTime = "0.3.1", "abc1234", "2026-10-15T09:00:00Z"
	if got, want := String(), "0.3.1 (abc1234, built 2026-10-15T09:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaults(t *testing.T) {
	if Version == "" || GitSHA == "" || BuildTime == "" {
		t.Error("build metadata should default to non-empty placeholders")
	}
}
