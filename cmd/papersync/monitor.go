package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/github"
	"github.com/papersync/papersync/internal/reconcile"
	"github.com/papersync/papersync/internal/sheet"
	"github.com/papersync/papersync/internal/state"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Create review issues for new paper IDs in the sheet",
	Long: `Fetches the sheet and creates a "Paper Review: {paper_id}" issue for
every paper ID that has neither a matching issue nor an entry in the
processed set. Created issues are attached to the configured ProjectV2
board when --project (or PAPERSYNC_PROJECT) is set.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
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

	records := fetchRecords(ctx, cfg.SheetID, cfg.HTTPTimeout, sheet.ModeIdentifierOnly)

	processed, err := state.LoadProcessed(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (starting from empty state)\n", err)
	}

	engine := reconcile.NewEngine(gh, reconcile.Options{
		Mode:          sheet.ModeIdentifierOnly,
		DryRun:        dryRun,
		BoardNumber:   cfg.ProjectNumber,
		WorkflowLabel: cfg.WorkflowLabel,
	})
	engine.Boards = gh
	engine.Processed = processed
	engine.OnMessage = func(msg string) { fmt.Println(msg) }
	engine.OnWarning = func(msg string) { fmt.Fprintf(os.Stderr, "Warning: %s\n", msg) }

	stats, err := engine.Run(ctx, records)
	if err != nil {
		return err
	}

	if !dryRun {
		if err := processed.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save state: %v\n", err)
		}
	}

	fmt.Printf("Monitor complete: %s\n", stats)
	return nil
}
