package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/config"
	"github.com/papersync/papersync/internal/lockfile"
)

// Exit codes. Per-record reconciliation failures do not change the exit
// code; a completed run exits 0 even when some records failed.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

var (
	dryRun       bool
	stateDirFlag string
	projectFlag  int
	workflowFlag string
)

var rootCmd = &cobra.Command{
	Use:   "papersync",
	Short: "papersync - one-way sync from a Google Sheet to GitHub issues",
	Long: `papersync reconciles paper review tasks from a published Google Sheet
into GitHub issues. The sheet is the source of truth: issues are created
for new papers and updated when a paper's status changes. Nothing flows
back to the sheet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing to GitHub or state files")
	rootCmd.PersistentFlags().StringVar(&stateDirFlag, "state-dir", "", "Directory for state files and the run lock (default: PAPERSYNC_STATE_DIR or .)")
	rootCmd.PersistentFlags().IntVar(&projectFlag, "project", 0, "ProjectV2 board number to attach created issues to (default: PAPERSYNC_PROJECT)")
	rootCmd.PersistentFlags().StringVar(&workflowFlag, "workflow-label", "", "Extra label applied to created issues and preserved on updates")
}

// loadConfig loads configuration and applies flag overrides. Flags win
// over environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if stateDirFlag != "" {
		cfg.StateDir = stateDirFlag
	}
	if projectFlag != 0 {
		cfg.ProjectNumber = projectFlag
	}
	if workflowFlag != "" {
		cfg.WorkflowLabel = workflowFlag
	}
	return cfg, nil
}

// acquireRunLock takes the run lock in the state directory. The caller
// must Release the returned lock.
func acquireRunLock(cfg *config.Config) (*lockfile.Lock, error) {
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	path := filepath.Join(cfg.StateDir, "papersync.lock")
	lock, err := lockfile.Acquire(path)
	if err != nil {
		if errors.Is(err, lockfile.ErrLockBusy) {
			return nil, fmt.Errorf("another run is in progress (lock %s): %w", path, err)
		}
		return nil, err
	}
	return lock, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var verr *config.ValidationError
		if errors.As(err, &verr) {
			os.Exit(exitConfig)
		}
		os.Exit(exitError)
	}
}
