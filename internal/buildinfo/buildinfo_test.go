package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	defer func() { Version, Commit, Date = oldVersion, oldCommit, oldDate }()

	Version, Commit, Date = "1.2.0", "0123456789abcdef", "2026-10-16"
	if got, want := Summary(), "1.2.0 (commit=0123456, date=2026-10-16)"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	Commit, Date = "", ""
	if got := Summary(); got != "1.2.0" {
		t.Fatalf("unexpected summary: %q", got)
	}
}
