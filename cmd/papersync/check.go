package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/github"
	"github.com/papersync/papersync/internal/labels"
	"github.com/papersync/papersync/internal/sheet"
)

// previewLimit caps how many parsed records the check output shows.
const previewLimit = 5

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration, sheet access and GitHub credentials",
	Long: `Validates the configuration, fetches the sheet export, parses it in
both modes and authenticates against the GitHub API. Makes no writes.
Useful before wiring papersync into a scheduler.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Println("Configuration: OK")
	fmt.Printf("  repository: %s/%s\n", cfg.Owner, cfg.Repo)
	fmt.Printf("  state dir:  %s\n", cfg.StateDir)
	if cfg.ProjectNumber > 0 {
		fmt.Printf("  board:      project %d\n", cfg.ProjectNumber)
	}

	client := sheet.NewClient(cfg.SheetID, cfg.HTTPTimeout)
	raw, err := client.FetchCSV(ctx)
	if err != nil {
		return fmt.Errorf("sheet access failed: %w", err)
	}
	records, warnings := sheet.Parse(raw, sheet.ModeFullStatus)
	fmt.Printf("Sheet access: OK (%d records)\n", len(records))
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	for i, rec := range records {
		if i >= previewLimit {
			fmt.Printf("  ... and %d more\n", len(records)-previewLimit)
			break
		}
		fmt.Printf("  %s: status=%q reviewer=%q\n", rec.PaperID, rec.Status, rec.Reviewer)
	}

	fmt.Println("Status labels:")
	for _, def := range labels.Definitions() {
		fmt.Printf("  %-20s #%s  %s\n", def.Name, def.Color, def.Description)
	}

	gh := github.NewClient(cfg.Token, cfg.Owner, cfg.Repo, cfg.HTTPTimeout)
	user, err := gh.CheckAuth(ctx)
	if err != nil {
		return fmt.Errorf("github authentication failed: %w", err)
	}
	fmt.Printf("GitHub auth: OK (authenticated as %s)\n", user.Login)

	return nil
}
