package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/github"
	"github.com/papersync/papersync/internal/labels"
	"github.com/papersync/papersync/internal/reconcile"
	"github.com/papersync/papersync/internal/sheet"
	"github.com/papersync/papersync/internal/state"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply sheet status changes to existing review issues",
	Long: `Fetches the sheet and, for each record whose status/reviewer/notes
changed since the last successful run, replaces the status labels on the
matching issue and posts a status comment. Records without a matching
issue are reported, never created; use "papersync monitor" for creation.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lock, err := acquireRunLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	gh := github.NewClient(cfg.Token, cfg.Owner, cfg.Repo, cfg.HTTPTimeout)

	if !dryRun {
		ensureLabels(ctx, gh)
	}

	records := fetchRecords(ctx, cfg.SheetID, cfg.HTTPTimeout, sheet.ModeFullStatus)

	fingerprints, err := state.LoadFingerprints(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (starting from empty state)\n", err)
	}

	engine := reconcile.NewEngine(gh, reconcile.Options{
		Mode:          sheet.ModeFullStatus,
		DryRun:        dryRun,
		WorkflowLabel: cfg.WorkflowLabel,
	})
	engine.Fingerprints = fingerprints
	engine.OnMessage = func(msg string) { fmt.Println(msg) }
	engine.OnWarning = func(msg string) { fmt.Fprintf(os.Stderr, "Warning: %s\n", msg) }

	stats, err := engine.Run(ctx, records)
	if err != nil {
		return err
	}

	if !dryRun {
		if err := fingerprints.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save state: %v\n", err)
		}
	}

	fmt.Printf("Sync complete: %s\n", stats)
	return nil
}

// ensureLabels creates any missing status labels up front so that label
// replacement later in the run cannot fail on an undefined label. Failures
// here are reported and skipped; the run proceeds.
func ensureLabels(ctx context.Context, gh *github.Client) {
	for _, def := range labels.Definitions() {
		created, err := gh.EnsureLabel(ctx, def.Name, def.Color, def.Description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to ensure label %s: %v\n", def.Name, err)
			continue
		}
		if created {
			fmt.Printf("Created label: %s\n", def.Name)
		}
	}
}

// fetchRecords fetches and parses the sheet. A fetch failure degrades to an
// empty dataset, which the engine treats as a no-op run.
func fetchRecords(ctx context.Context, sheetID string, timeout time.Duration, mode sheet.Mode) []sheet.Record {
	client := sheet.NewClient(sheetID, timeout)
	records, warnings, err := client.FetchRecords(ctx, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to fetch sheet: %v (treating as empty)\n", err)
		return nil
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return records
}
