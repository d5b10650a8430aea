package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestString(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	cases := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "dysc 0.1.0-dev"},
		{"1.2.3", "abc123", "", "dysc 1.2.3 (abc123)"},
		{"1.2.3-rc.1+build.7", "", "2026-01-15", "dysc 1.2.3-rc.1+build.7 built 2026-01-15"},
		{"nightly", "", "", "dysc nightly"},
	}
	for _, tc := range cases {
		Version, GitCommit, BuildDate = tc.version, tc.commit, tc.date
		if got := String(); got != tc.want {
			t.Errorf("String() with %q = %q, want %q", tc.version, got, tc.want)
		}
	}
}
