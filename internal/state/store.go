// Package state persists the minimal change-detection state between runs.
//
// Two independent JSON files are kept: a paper_id → fingerprint map for the
// status-sync workflow, and a processed paper_id set for the creation
// workflow. Missing or corrupt files load as empty state, never as a fatal
// error; saves are full overwrites written atomically (temp file + rename) so
// a crash mid-run cannot corrupt the next run's load.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/papersync/papersync/internal/sheet"
)

// State file names, kept compatible with earlier versions of the sync scripts.
const (
	StatusStateFile  = "issue_status_state.json"
	MonitorStateFile = "sheet_state.json"
)

// Fingerprint returns the change-detection fingerprint for a record: a
// deterministic concatenation of its mutable fields.
func Fingerprint(r sheet.Record) string {
	return r.Status + "|" + r.Reviewer + "|" + r.Notes
}

// statusState is the serialized form of the fingerprint store.
type statusState struct {
	LastUpdated map[string]string `json:"last_updated"`
}

// monitorState is the serialized form of the processed set.
type monitorState struct {
	ProcessedPaperIDs []string `json:"processed_paper_ids"`
}

// FingerprintStore tracks the last fingerprint applied to the tracker per
// paper_id. A paper_id present in the store was fully applied (labels patched
// and comment posted) as of the last successful run.
type FingerprintStore struct {
	path    string
	applied map[string]string
}

// LoadFingerprints reads the fingerprint store from dir. A missing or corrupt
// file yields an empty store; the returned error is advisory only and the
// store is always usable.
func LoadFingerprints(dir string) (*FingerprintStore, error) {
	s := &FingerprintStore{
		path:    filepath.Join(dir, StatusStateFile),
		applied: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read state file: %w", err)
	}

	var st statusState
	if err := json.Unmarshal(data, &st); err != nil {
		return s, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	if st.LastUpdated != nil {
		s.applied = st.LastUpdated
	}
	return s, nil
}

// ShouldApply reports whether the record differs from what was last applied.
// True when the paper_id is absent from the store.
func (s *FingerprintStore) ShouldApply(paperID string, r sheet.Record) bool {
	return s.applied[paperID] != Fingerprint(r)
}

// RecordApplied stores the record's fingerprint. Call only after the
// corresponding remote writes are confirmed successful.
func (s *FingerprintStore) RecordApplied(paperID string, r sheet.Record) {
	s.applied[paperID] = Fingerprint(r)
}

// Len returns the number of tracked paper_ids.
func (s *FingerprintStore) Len() int {
	return len(s.applied)
}

// Save writes the store to disk as a full overwrite.
func (s *FingerprintStore) Save() error {
	return writeJSONAtomic(s.path, statusState{LastUpdated: s.applied})
}

// ProcessedStore tracks paper_ids already handled by the creation workflow.
type ProcessedStore struct {
	path string
	ids  map[string]bool
}

// LoadProcessed reads the processed set from dir. A missing or corrupt file
// yields an empty store; the returned error is advisory only.
func LoadProcessed(dir string) (*ProcessedStore, error) {
	s := &ProcessedStore{
		path: filepath.Join(dir, MonitorStateFile),
		ids:  make(map[string]bool),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read state file: %w", err)
	}

	var st monitorState
	if err := json.Unmarshal(data, &st); err != nil {
		return s, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	for _, id := range st.ProcessedPaperIDs {
		s.ids[id] = true
	}
	return s, nil
}

// Contains reports whether the paper_id was processed by a previous run.
func (s *ProcessedStore) Contains(paperID string) bool {
	return s.ids[paperID]
}

// Add marks a paper_id as processed.
func (s *ProcessedStore) Add(paperID string) {
	s.ids[paperID] = true
}

// Len returns the number of processed paper_ids.
func (s *ProcessedStore) Len() int {
	return len(s.ids)
}

// Save writes the processed set to disk as a full overwrite.
func (s *ProcessedStore) Save() error {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return writeJSONAtomic(s.path, monitorState{ProcessedPaperIDs: ids})
}

// writeJSONAtomic marshals v and writes it with temp file + rename.
func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
