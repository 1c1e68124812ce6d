// Package labels maps review-workflow statuses to GitHub label sets.
//
// Label application is a full replace of status-class labels, never an
// additive union: every label belonging to the status table's value set is
// stripped before the resolved label is added, and the essential labels are
// re-added so they survive every transition.
package labels

import "strings"

// Essential labels that must survive every status transition.
const (
	// Sentinel is the label that scopes issue listings to paper-review issues.
	Sentinel = "paper-review"

	// Automated marks issues created and maintained by the sync process.
	Automated = "automated"
)

// Definition describes a status label as it should exist on the repository.
type Definition struct {
	Name        string
	Color       string // hex without leading '#'
	Description string
}

// statusLabels maps lowercased sheet status values to label names.
// This is the single source of truth for the status dimension.
var statusLabels = map[string]string{
	"pending":     "status-pending",
	"in_progress": "status-in-progress",
	"reviewing":   "status-reviewing",
	"completed":   "status-completed",
	"rejected":    "status-rejected",
	"approved":    "status-approved",
}

// statusColors maps label names to their repository colors.
var statusColors = map[string]string{
	"status-pending":     "FFA500", // orange
	"status-in-progress": "0366d6", // blue
	"status-reviewing":   "6f42c1", // purple
	"status-completed":   "28a745", // green
	"status-rejected":    "d73a4a", // red
	"status-approved":    "28a745", // green
}

// Resolve looks up the label for a status value, case-insensitively.
// Returns ("", false) for unknown statuses.
func Resolve(status string) (string, bool) {
	name, ok := statusLabels[strings.ToLower(strings.TrimSpace(status))]
	return name, ok
}

// IsStatusLabel reports whether name belongs to the status table's value set.
func IsStatusLabel(name string) bool {
	_, ok := statusColors[name]
	return ok
}

// Definitions returns every status label with its color and description,
// for idempotent create-if-absent at the start of a status-sync run.
func Definitions() []Definition {
	defs := make([]Definition, 0, len(statusLabels))
	for _, status := range []string{"pending", "in_progress", "reviewing", "completed", "rejected", "approved"} {
		name := statusLabels[status]
		defs = append(defs, Definition{
			Name:        name,
			Color:       statusColors[name],
			Description: "Status: " + titleCase(status),
		})
	}
	return defs
}

// Essential returns the labels that must be present on every managed issue.
// workflow is the optional initial workflow label; empty means none.
func Essential(workflow string) []string {
	ess := []string{Sentinel, Automated}
	if workflow != "" {
		ess = append(ess, workflow)
	}
	return ess
}

// Apply computes the label set an issue should carry after a status change.
// Unknown statuses leave the status dimension of current untouched, so a typo
// in the sheet never destroys existing labels. The result is deduplicated;
// order carries no meaning.
func Apply(status string, current []string, essential []string) []string {
	out := make([]string, 0, len(current)+len(essential)+1)
	seen := make(map[string]bool, len(current)+len(essential)+1)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	// Strip the status dimension, keep everything else.
	for _, name := range current {
		if !IsStatusLabel(name) {
			add(name)
		}
	}

	if name, ok := Resolve(status); ok {
		add(name)
	}

	for _, name := range essential {
		add(name)
	}

	return out
}

// titleCase converts "in_progress" to "In Progress".
func titleCase(status string) string {
	words := strings.Split(status, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
