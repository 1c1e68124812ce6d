// Package github provides the client and data types for the GitHub API
// surface the reconciler needs: issue listing and creation, label replace,
// comments, label ensure, and ProjectV2 board attachment.
package github

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultGraphQLEndpoint is the GitHub GraphQL API URL, used only for
	// ProjectV2 board operations.
	DefaultGraphQLEndpoint = "https://api.github.com/graphql"

	// DefaultTimeout bounds a single API request. Failed calls are never
	// retried within a run; a failure is terminal for the record it serves.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the number of issues fetched per listing page.
	MaxPageSize = 100

	// MaxPages caps listing pagination to guard against malformed Link headers.
	MaxPages = 100
)

// Client provides methods to interact with the GitHub API for one repository.
type Client struct {
	Token      string       // personal access token
	Owner      string       // repository owner (user or org)
	Repo       string       // repository name
	BaseURL    string       // REST base URL (default: https://api.github.com)
	GraphQLURL string       // GraphQL URL (default: https://api.github.com/graphql)
	HTTPClient *http.Client // optional custom HTTP client
}

// Issue is the projection of a tracker issue relevant to reconciliation.
// The reconciler only reads issues; all mutation goes through Client methods.
type Issue struct {
	ID          int      `json:"id"`      // global unique ID
	NodeID      string   `json:"node_id"` // GraphQL node ID, needed for board attach
	Number      int      `json:"number"`  // repository-scoped issue number
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	State       string   `json:"state"` // "open" or "closed"
	Labels      []Label  `json:"labels"`
	HTMLURL     string   `json:"html_url"`
	PullRequest *PullRef `json:"pull_request,omitempty"` // non-nil if this is a PR
}

// PullRef indicates an issue is actually a pull request. The GitHub Issues
// API returns PRs alongside issues; this field distinguishes them.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// Label represents a GitHub label.
type Label struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// User represents the authenticated GitHub user (for auth checks).
type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// LabelNames extracts the label name strings from a slice of Label structs.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}
