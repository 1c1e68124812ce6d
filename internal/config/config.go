// Package config loads runtime configuration from the environment, an
// optional .env file, and an optional papersync.yaml file. Environment
// variables always win over file values.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults applied when the corresponding setting is absent.
const (
	DefaultStateDir    = "."
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds everything a run needs. Validate before use.
type Config struct {
	// SheetID is the Google Sheet document ID to export as CSV.
	SheetID string

	// Token authenticates against the GitHub REST and GraphQL APIs.
	Token string

	// Owner and Repo identify the target repository, split from the
	// "owner/repo" form of GITHUB_REPOSITORY.
	Owner string
	Repo  string

	// StateDir holds the fingerprint store, the processed-ID store and
	// the run lock.
	StateDir string

	// ProjectNumber is the ProjectV2 board to attach new issues to.
	// Zero disables board attachment.
	ProjectNumber int

	// WorkflowLabel is an extra label applied to every created issue
	// and preserved across label replacement. May be empty.
	WorkflowLabel string

	// HTTPTimeout bounds each individual API call.
	HTTPTimeout time.Duration
}

// ValidationError reports every missing required setting at once so an
// operator can fix the environment in a single pass.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Load reads configuration from the process environment, a .env file in
// the working directory (if present), and a papersync.yaml file (if
// present). Precedence: environment > .env > yaml > defaults.
func Load() (*Config, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("papersync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	bindings := map[string]string{
		"sheet_id":       "GOOGLE_SHEET_ID",
		"github_token":   "GITHUB_TOKEN",
		"repository":     "GITHUB_REPOSITORY",
		"state_dir":      "PAPERSYNC_STATE_DIR",
		"project":        "PAPERSYNC_PROJECT",
		"workflow_label": "PAPERSYNC_WORKFLOW_LABEL",
		"http_timeout":   "PAPERSYNC_HTTP_TIMEOUT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetDefault("state_dir", DefaultStateDir)
	v.SetDefault("http_timeout", DefaultHTTPTimeout.String())

	cfg := &Config{
		SheetID:       strings.TrimSpace(v.GetString("sheet_id")),
		Token:         strings.TrimSpace(v.GetString("github_token")),
		StateDir:      v.GetString("state_dir"),
		ProjectNumber: v.GetInt("project"),
		WorkflowLabel: strings.TrimSpace(v.GetString("workflow_label")),
	}

	timeout := v.GetDuration("http_timeout")
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	cfg.HTTPTimeout = timeout

	repository := strings.TrimSpace(v.GetString("repository"))
	if repository != "" {
		owner, repo, err := splitRepository(repository)
		if err != nil {
			return nil, err
		}
		cfg.Owner = owner
		cfg.Repo = repo
	}

	return cfg, nil
}

// Validate reports every missing required setting. A returned error is
// always a *ValidationError.
func (c *Config) Validate() error {
	var missing []string
	if c.SheetID == "" {
		missing = append(missing, "GOOGLE_SHEET_ID")
	}
	if c.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.Owner == "" || c.Repo == "" {
		missing = append(missing, "GITHUB_REPOSITORY")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{Missing: missing}
	}
	return nil
}

func splitRepository(s string) (owner, repo string, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY must be owner/repo, got %q", s)
	}
	return parts[0], parts[1], nil
}
