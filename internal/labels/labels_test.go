package labels

import (
	"sort"
	"testing"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve(t *testing.T) {
	tests := []struct {
		status string
		want   string
		ok     bool
	}{
		{"pending", "status-pending", true},
		{"IN_PROGRESS", "status-in-progress", true},
		{"  Reviewing ", "status-reviewing", true},
		{"approved", "status-approved", true},
		{"on_hold", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(tt.status)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.status, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApplyReplacesStatusLabel(t *testing.T) {
	current := []string{"paper-review", "automated", "status-pending"}
	got := Apply("in_progress", current, Essential(""))

	want := []string{"automated", "paper-review", "status-in-progress"}
	if !equal(sorted(got), want) {
		t.Errorf("Apply() = %v, want %v", sorted(got), want)
	}
}

func TestApplyUnknownStatusPassesThrough(t *testing.T) {
	current := []string{"paper-review", "automated", "status-reviewing", "urgent"}
	got := Apply("on_vacation", current, Essential(""))

	// The old status label is stripped (full-replace semantics) but nothing
	// outside the status dimension is touched.
	want := []string{"automated", "paper-review", "urgent"}
	if !equal(sorted(got), want) {
		t.Errorf("Apply() = %v, want %v", sorted(got), want)
	}
}

func TestApplyPreservesForeignLabels(t *testing.T) {
	current := []string{"good-first-issue", "status-pending", "help-wanted"}
	got := Apply("completed", current, Essential(""))

	for _, keep := range []string{"good-first-issue", "help-wanted"} {
		found := false
		for _, l := range got {
			if l == keep {
				found = true
			}
		}
		if !found {
			t.Errorf("Apply() dropped non-status label %q: %v", keep, got)
		}
	}
	for _, l := range got {
		if l == "status-pending" {
			t.Errorf("Apply() kept stale status label: %v", got)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	current := []string{"paper-review", "status-pending", "extra"}
	once := Apply("reviewing", current, Essential("ready-to-code"))
	twice := Apply("reviewing", once, Essential("ready-to-code"))

	if !equal(sorted(once), sorted(twice)) {
		t.Errorf("Apply() not idempotent: once=%v twice=%v", sorted(once), sorted(twice))
	}
}

func TestApplyAddsEssentials(t *testing.T) {
	got := Apply("pending", nil, Essential("ready-to-code"))
	want := []string{"automated", "paper-review", "ready-to-code", "status-pending"}
	if !equal(sorted(got), want) {
		t.Errorf("Apply() = %v, want %v", sorted(got), want)
	}
}

func TestApplyDeduplicates(t *testing.T) {
	current := []string{"paper-review", "paper-review", "automated"}
	got := Apply("pending", current, Essential(""))

	seen := make(map[string]int)
	for _, l := range got {
		seen[l]++
	}
	for l, n := range seen {
		if n > 1 {
			t.Errorf("Apply() emitted %q %d times", l, n)
		}
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	if len(defs) != 6 {
		t.Fatalf("Definitions() returned %d labels, want 6", len(defs))
	}

	byName := make(map[string]Definition)
	for _, d := range defs {
		byName[d.Name] = d
	}

	if d := byName["status-in-progress"]; d.Color != "0366d6" || d.Description != "Status: In Progress" {
		t.Errorf("status-in-progress = %+v", d)
	}
	if d := byName["status-pending"]; d.Color != "FFA500" || d.Description != "Status: Pending" {
		t.Errorf("status-pending = %+v", d)
	}
}
