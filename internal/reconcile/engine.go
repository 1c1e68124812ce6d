package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/papersync/papersync/internal/github"
	"github.com/papersync/papersync/internal/labels"
	"github.com/papersync/papersync/internal/sheet"
	"github.com/papersync/papersync/internal/state"
)

// Gateway is the remote issue tracker surface the engine drives. It is
// satisfied by *github.Client; tests substitute a fake.
type Gateway interface {
	ListIssuesByLabel(ctx context.Context, label, state string) ([]github.Issue, error)
	SearchIssueByTitle(ctx context.Context, label, fragment string) (*github.Issue, error)
	CreateIssue(ctx context.Context, title, body string, labels []string) (*github.Issue, error)
	ReplaceLabels(ctx context.Context, number int, labels []string) error
	CreateComment(ctx context.Context, number int, body string) error
}

// BoardGateway is the optional project-board surface. Board placement is
// best-effort decoration: failures are logged and never affect the primary
// create outcome.
type BoardGateway interface {
	ResolveProject(ctx context.Context, number int) (string, error)
	AddIssueToProject(ctx context.Context, projectID, contentID string) error
	AddDraftItem(ctx context.Context, projectID, title string) error
}

// Options configure a reconciliation run.
type Options struct {
	// Mode selects the workflow: identifier-only creation or full status sync.
	Mode sheet.Mode

	// DryRun previews decisions without any remote write or state change.
	DryRun bool

	// BoardNumber is the ProjectV2 board to attach created issues to; 0
	// disables board attachment.
	BoardNumber int

	// WorkflowLabel is the optional initial workflow label added to created
	// issues and treated as essential during label replacement.
	WorkflowLabel string
}

// Stats aggregates per-run outcome counts for end-of-run reporting.
type Stats struct {
	Created  int
	Updated  int
	Skipped  int
	NotFound int
	Errors   int
}

// String renders the end-of-run summary line.
func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d not-found=%d errors=%d",
		s.Created, s.Updated, s.Skipped, s.NotFound, s.Errors)
}

// Engine converges the tracker to match one snapshot of sheet records. It is
// single-threaded and run-to-completion: every record is processed exactly
// once, one record's failure never blocks the rest, and nothing is retained
// between runs except through the state stores.
type Engine struct {
	Gateway      Gateway
	Boards       BoardGateway // optional; used only when Options.BoardNumber > 0
	Fingerprints *state.FingerprintStore
	Processed    *state.ProcessedStore
	Options      Options

	// Callbacks for per-record diagnostics (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)

	// Now is the clock used for timestamps in issue bodies and comments;
	// defaults to time.Now.
	Now func() time.Time

	// projectID caches the board resolution for the run.
	projectID string
}

// NewEngine creates an engine for the given gateway and options.
func NewEngine(gw Gateway, opts Options) *Engine {
	return &Engine{
		Gateway: gw,
		Options: opts,
	}
}

// Run processes the full record sequence once. The returned error is non-nil
// only for failures that invalidate the whole run (an incomplete issue
// listing); per-record failures are isolated and counted in Stats.Errors.
func (e *Engine) Run(ctx context.Context, records []sheet.Record) (*Stats, error) {
	stats := &Stats{}

	if len(records) == 0 {
		// Empty dataset is a no-op run, never "delete everything".
		e.msg("No records in sheet, nothing to do")
		return stats, nil
	}

	// The index must be complete before any create/update decision; a stale
	// or partial index is the primary duplicate-creation risk.
	issues, err := e.Gateway.ListIssuesByLabel(ctx, labels.Sentinel, "all")
	if err != nil {
		return stats, fmt.Errorf("listing tracker issues: %w", err)
	}
	index := BuildIndex(issues)
	e.msg(fmt.Sprintf("Found %d records in sheet, %d existing issues", len(records), index.Len()))
	for _, id := range index.Duplicates() {
		e.warn(fmt.Sprintf("paper_id %s matches multiple issues; records for it will be skipped", id))
	}

	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if rec.PaperID == "" {
			continue
		}
		if seen[rec.PaperID] {
			stats.Skipped++
			continue
		}
		seen[rec.PaperID] = true

		if index.Duplicated(rec.PaperID) {
			stats.Errors++
			continue
		}

		switch e.Options.Mode {
		case sheet.ModeIdentifierOnly:
			e.reconcileCreate(ctx, rec, index, stats)
		case sheet.ModeFullStatus:
			e.reconcileUpdate(ctx, rec, index, stats)
		}
	}

	return stats, nil
}

// reconcileCreate handles one record in the creation workflow.
func (e *Engine) reconcileCreate(ctx context.Context, rec sheet.Record, index *Index, stats *Stats) {
	paperID := rec.PaperID

	if e.Processed != nil && e.Processed.Contains(paperID) {
		stats.Skipped++
		return
	}

	if _, ok := index.Lookup(paperID); ok {
		e.msg(fmt.Sprintf("Issue already exists for paper_id %s", paperID))
		e.markProcessed(paperID)
		stats.Skipped++
		return
	}

	// Secondary guard against index staleness: a concurrent actor may have
	// created the issue after the listing was taken. A sentinel-labeled issue
	// whose title contains the paper_id counts as authoritative "exists".
	if existing, err := e.Gateway.SearchIssueByTitle(ctx, labels.Sentinel, paperID); err != nil {
		e.warn(fmt.Sprintf("existence check for %s failed: %v", paperID, err))
	} else if existing != nil {
		e.msg(fmt.Sprintf("Issue #%d already covers paper_id %s", existing.Number, paperID))
		e.markProcessed(paperID)
		stats.Skipped++
		return
	}

	if e.Options.DryRun {
		e.msg(fmt.Sprintf("[dry-run] Would create issue %q", TitleFor(paperID)))
		stats.Created++
		return
	}

	initial := labels.Essential(e.Options.WorkflowLabel)
	issue, err := e.Gateway.CreateIssue(ctx, TitleFor(paperID), e.issueBody(paperID), initial)
	if err != nil {
		e.warn(fmt.Sprintf("Failed to create issue for %s: %v", paperID, err))
		stats.Errors++
		return
	}
	e.msg(fmt.Sprintf("Created issue #%d for paper_id %s", issue.Number, paperID))

	// Issue creation is the durable, authoritative action; board placement
	// is decoration and its failure never rolls anything back.
	if e.Options.BoardNumber > 0 && e.Boards != nil {
		e.attachToBoard(ctx, issue)
	}

	e.markProcessed(paperID)
	stats.Created++
}

// reconcileUpdate handles one record in the status-sync workflow.
func (e *Engine) reconcileUpdate(ctx context.Context, rec sheet.Record, index *Index, stats *Stats) {
	paperID := rec.PaperID

	issue, ok := index.Lookup(paperID)
	if !ok {
		e.warn(fmt.Sprintf("No issue found for paper_id %s", paperID))
		stats.NotFound++
		return
	}

	if e.Fingerprints != nil && !e.Fingerprints.ShouldApply(paperID, rec) {
		e.msg(fmt.Sprintf("No changes for paper_id %s", paperID))
		stats.Skipped++
		return
	}

	if e.Options.DryRun {
		e.msg(fmt.Sprintf("[dry-run] Would update issue #%d for paper_id %s", issue.Number, paperID))
		stats.Updated++
		return
	}

	newLabels := labels.Apply(rec.Status, github.LabelNames(issue.Labels), labels.Essential(e.Options.WorkflowLabel))
	if err := e.Gateway.ReplaceLabels(ctx, issue.Number, newLabels); err != nil {
		// Abort this record before the comment; next run retries from scratch.
		e.warn(fmt.Sprintf("Failed to update labels on issue #%d: %v", issue.Number, err))
		stats.Errors++
		return
	}

	if err := e.Gateway.CreateComment(ctx, issue.Number, e.statusComment(rec)); err != nil {
		// Comment delivery is part of "applied": the fingerprint stays
		// behind so a future run re-patches (a harmless no-op) and
		// re-attempts the comment.
		e.warn(fmt.Sprintf("Failed to comment on issue #%d: %v", issue.Number, err))
		stats.Errors++
		return
	}

	if e.Fingerprints != nil {
		e.Fingerprints.RecordApplied(paperID, rec)
	}
	e.msg(fmt.Sprintf("Updated issue #%d for paper_id %s (status %s)", issue.Number, paperID, rec.Status))
	stats.Updated++
}

// attachToBoard links a created issue to the configured board, resolving the
// numeric board reference once per run. On link failure it falls back to a
// placeholder entry carrying only the title.
func (e *Engine) attachToBoard(ctx context.Context, issue *github.Issue) {
	if e.projectID == "" {
		id, err := e.Boards.ResolveProject(ctx, e.Options.BoardNumber)
		if err != nil {
			e.warn(fmt.Sprintf("Failed to resolve board %d: %v", e.Options.BoardNumber, err))
			return
		}
		e.projectID = id
	}

	if err := e.Boards.AddIssueToProject(ctx, e.projectID, issue.NodeID); err != nil {
		e.warn(fmt.Sprintf("Failed to add issue #%d to board: %v", issue.Number, err))
		if err := e.Boards.AddDraftItem(ctx, e.projectID, issue.Title); err != nil {
			e.warn(fmt.Sprintf("Failed to add placeholder for issue #%d: %v", issue.Number, err))
		}
	}
}

// markProcessed records a paper_id in the creation-mode dedup set.
func (e *Engine) markProcessed(paperID string) {
	if e.Processed != nil {
		e.Processed.Add(paperID)
	}
}

// issueBody renders the fixed markdown template for a new review issue.
func (e *Engine) issueBody(paperID string) string {
	return fmt.Sprintf(`## Paper Review Request

**Paper ID:** %s

**Date Added:** %s

### Tasks
- [ ] Review paper content
- [ ] Analyze methodology
- [ ] Check results and conclusions
- [ ] Prepare review summary

### Notes
This issue was automatically created from Google Sheet monitoring.
`, paperID, e.now().Format("2006-01-02 15:04:05"))
}

// statusComment renders the timestamped status comment for a record. The
// Notes line is omitted when notes is blank.
func (e *Engine) statusComment(rec sheet.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Status Update\n\n")
	fmt.Fprintf(&b, "**Status:** %s\n", rec.Status)
	fmt.Fprintf(&b, "**Reviewer:** %s\n", rec.Reviewer)
	fmt.Fprintf(&b, "**Updated:** %s\n", e.now().Format("2006-01-02 15:04:05"))
	if strings.TrimSpace(rec.Notes) != "" {
		fmt.Fprintf(&b, "\n**Notes:** %s\n", rec.Notes)
	}
	return b.String()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) msg(msg string) {
	if e.OnMessage != nil {
		e.OnMessage(msg)
	}
}

func (e *Engine) warn(msg string) {
	if e.OnWarning != nil {
		e.OnWarning(msg)
	}
}
