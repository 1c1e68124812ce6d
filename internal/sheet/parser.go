// Package sheet fetches and parses the CSV export of the review spreadsheet.
//
// Parsing is deliberately naive: fields are split on commas and surrounding
// double-quotes are stripped, but embedded delimiters inside quoted fields are
// not supported. This matches the sheet's known shape; rows that do not fit it
// are flagged, never silently truncated.
package sheet

import (
	"fmt"
	"strings"
)

// Mode selects which columns a row must carry.
type Mode int

const (
	// ModeIdentifierOnly requires only the paper_id column (creation workflow).
	ModeIdentifierOnly Mode = iota

	// ModeFullStatus requires paper_id, status, reviewer and notes (update workflow).
	ModeFullStatus
)

// String returns the mode name used in logs and flags.
func (m Mode) String() string {
	if m == ModeFullStatus {
		return "full-status-sync"
	}
	return "identifier-only"
}

// Record is one logical spreadsheet row. Records are transient: they are
// rebuilt from the sheet on every run and never stored locally.
type Record struct {
	PaperID  string
	Status   string
	Reviewer string
	Notes    string
}

// statusColumns is the minimum field count for ModeFullStatus rows.
const statusColumns = 4

// Parse turns raw CSV text into records. The first line is always treated as
// a header and discarded. Blank lines and lines with fewer than the mode's
// minimum field count are dropped. The returned warnings describe rows that
// were dropped or carried unexpected extra fields; an empty input yields zero
// records and must be treated by callers as a no-op run.
func Parse(raw string, mode Mode) ([]Record, []string) {
	var records []Record
	var warnings []string

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil, nil
	}

	for i, line := range lines[1:] {
		rowNum := i + 2 // 1-based, counting the header
		if strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Split(line, ",")
		for j, col := range cols {
			cols[j] = strings.Trim(strings.TrimSpace(col), `"`)
		}

		switch mode {
		case ModeIdentifierOnly:
			if cols[0] == "" {
				warnings = append(warnings, fmt.Sprintf("row %d: empty paper_id, skipped", rowNum))
				continue
			}
			records = append(records, Record{PaperID: cols[0]})

		case ModeFullStatus:
			if len(cols) < statusColumns {
				warnings = append(warnings, fmt.Sprintf("row %d: %d fields, need %d, skipped", rowNum, len(cols), statusColumns))
				continue
			}
			if len(cols) > statusColumns {
				// Likely an unquoted comma in notes; keep the row but flag it.
				warnings = append(warnings, fmt.Sprintf("row %d: %d fields, expected %d (embedded commas are not supported)", rowNum, len(cols), statusColumns))
			}
			if cols[0] == "" {
				warnings = append(warnings, fmt.Sprintf("row %d: empty paper_id, skipped", rowNum))
				continue
			}
			records = append(records, Record{
				PaperID:  cols[0],
				Status:   cols[1],
				Reviewer: cols[2],
				Notes:    cols[3],
			})
		}
	}

	return records, warnings
}
