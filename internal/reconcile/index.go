// Package reconcile implements the one-way reconciliation engine that
// converges the GitHub issue tracker to match the review spreadsheet.
package reconcile

import (
	"sort"
	"strings"

	"github.com/papersync/papersync/internal/github"
)

// TitlePrefix is the fixed title convention that encodes a paper_id into an
// issue title.
const TitlePrefix = "Paper Review: "

// TitleFor returns the deterministic issue title for a paper_id.
func TitleFor(paperID string) string {
	return TitlePrefix + paperID
}

// Index maps paper_ids to their remote issues. It is built fresh each run
// from a complete listing of sentinel-labeled issues; a partial listing would
// cause false "not found" results and duplicate creation, so callers must
// aggregate all pages before building.
type Index struct {
	issues     map[string]*github.Issue
	duplicates map[string]bool
}

// BuildIndex extracts paper_ids from issue titles. An issue qualifies only
// if its title starts with TitlePrefix; anything else is ignored. When two
// issues resolve to the same paper_id the id is quarantined: lookups for it
// fail and Duplicated reports true, because silently picking one of the two
// would hide a real inconsistency in the tracker.
func BuildIndex(issues []github.Issue) *Index {
	ix := &Index{
		issues:     make(map[string]*github.Issue),
		duplicates: make(map[string]bool),
	}

	for i := range issues {
		title := issues[i].Title
		if !strings.HasPrefix(title, TitlePrefix) {
			continue
		}
		paperID := strings.TrimSpace(strings.TrimPrefix(title, TitlePrefix))
		if paperID == "" {
			continue
		}
		if _, exists := ix.issues[paperID]; exists {
			ix.duplicates[paperID] = true
			continue
		}
		ix.issues[paperID] = &issues[i]
	}

	for paperID := range ix.duplicates {
		delete(ix.issues, paperID)
	}

	return ix
}

// Lookup returns the issue for a paper_id, if exactly one exists.
func (ix *Index) Lookup(paperID string) (*github.Issue, bool) {
	issue, ok := ix.issues[paperID]
	return issue, ok
}

// Duplicated reports whether the paper_id matched more than one issue.
func (ix *Index) Duplicated(paperID string) bool {
	return ix.duplicates[paperID]
}

// Duplicates returns the quarantined paper_ids, sorted.
func (ix *Index) Duplicates() []string {
	ids := make([]string, 0, len(ix.duplicates))
	for id := range ix.duplicates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of indexed paper_ids.
func (ix *Index) Len() int {
	return len(ix.issues)
}
