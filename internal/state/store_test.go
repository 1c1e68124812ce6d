package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/papersync/papersync/internal/sheet"
)

func TestFingerprint(t *testing.T) {
	r := sheet.Record{PaperID: "P1", Status: "pending", Reviewer: "John", Notes: "Waiting"}
	if got, want := Fingerprint(r), "pending|John|Waiting"; got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}

	// Empty notes still contribute a field, keeping the format stable.
	r.Notes = ""
	if got, want := Fingerprint(r), "pending|John|"; got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestFingerprintStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatalf("LoadFingerprints() error on missing file: %v", err)
	}

	rec := sheet.Record{PaperID: "P1", Status: "in_progress", Reviewer: "Alice"}
	if !s.ShouldApply("P1", rec) {
		t.Error("ShouldApply() = false for unknown paper_id, want true")
	}

	s.RecordApplied("P1", rec)
	if s.ShouldApply("P1", rec) {
		t.Error("ShouldApply() = true after RecordApplied with same record")
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatalf("LoadFingerprints() error: %v", err)
	}
	if reloaded.ShouldApply("P1", rec) {
		t.Error("ShouldApply() = true after reload, want false")
	}

	changed := rec
	changed.Status = "completed"
	if !reloaded.ShouldApply("P1", changed) {
		t.Error("ShouldApply() = false for changed record, want true")
	}
}

func TestFingerprintStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, StatusStateFile)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFingerprints(dir)
	if err == nil {
		t.Error("LoadFingerprints() = nil error for corrupt file, want advisory error")
	}
	if s == nil || s.Len() != 0 {
		t.Fatalf("LoadFingerprints() store = %v, want usable empty store", s)
	}

	// The store must still be fully usable.
	rec := sheet.Record{PaperID: "P1", Status: "pending"}
	s.RecordApplied("P1", rec)
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
}

func TestProcessedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadProcessed(dir)
	if err != nil {
		t.Fatalf("LoadProcessed() error: %v", err)
	}
	if s.Contains("P1") {
		t.Error("Contains(P1) = true on empty store")
	}

	s.Add("P1")
	s.Add("P2")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := LoadProcessed(dir)
	if err != nil {
		t.Fatalf("LoadProcessed() error: %v", err)
	}
	if !reloaded.Contains("P1") || !reloaded.Contains("P2") {
		t.Error("reloaded store missing processed ids")
	}
	if reloaded.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reloaded.Len())
	}
}

func TestProcessedStoreFileShape(t *testing.T) {
	dir := t.TempDir()

	s, _ := LoadProcessed(dir)
	s.Add("P2")
	s.Add("P1")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, MonitorStateFile))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	got, ok := raw["processed_paper_ids"]
	if !ok {
		t.Fatalf("state file missing processed_paper_ids key: %s", data)
	}
	if len(got) != 2 || got[0] != "P1" || got[1] != "P2" {
		t.Errorf("processed_paper_ids = %v, want sorted [P1 P2]", got)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()

	s, _ := LoadFingerprints(dir)
	s.RecordApplied("P1", sheet.Record{Status: "pending"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != StatusStateFile {
			t.Errorf("unexpected file after Save(): %s", e.Name())
		}
	}
}
