package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StatusError is returned for non-2xx API responses so callers can branch on
// the status code (label ensure treats 404 as "create it").
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Body, e.StatusCode)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.StatusCode == http.StatusNotFound
}

// NewClient creates a new GitHub client for owner/repo.
func NewClient(token, owner, repo string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Token:      token,
		Owner:      owner,
		Repo:       repo,
		BaseURL:    DefaultAPIEndpoint,
		GraphQLURL: DefaultGraphQLEndpoint,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL returns a new client with custom REST and GraphQL URLs
// (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    baseURL,
		GraphQLURL: baseURL + "/graphql",
		HTTPClient: c.HTTPClient,
	}
}

// repoPath returns the "owner/repo" path segment.
func (c *Client) repoPath() string {
	return c.Owner + "/" + c.Repo
}

// buildURL constructs a full API URL.
func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path

	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	return u
}

// doRequest performs a single authenticated request. There is no retry: a
// failed call is a terminal failure for the record it serves, and the next
// scheduled run picks it up again.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	const maxResponseSize = 50 * 1024 * 1024
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	_ = resp.Body.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, resp.Header, nil
}

// linkNextPattern matches the "next" relation in GitHub Link headers.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// hasNextPage checks the Link header for a next page URL.
func hasNextPage(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// CheckAuth verifies the token by fetching the authenticated user.
func (c *Client) CheckAuth(ctx context.Context) (*User, error) {
	respBody, _, err := c.doRequest(ctx, http.MethodGet, c.buildURL("/user", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("auth check failed: %w", err)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return &user, nil
}

// ListIssuesByLabel retrieves every issue carrying the given label, following
// Link-header pagination until exhaustion. A partial listing would cause
// false "not found" results and duplicate creation downstream, so pagination
// always aggregates all pages before returning. Pull requests are filtered
// out (GitHub returns them in the issues endpoint).
func (c *Client) ListIssuesByLabel(ctx context.Context, label, state string) ([]Issue, error) {
	var allIssues []Issue
	page := 1

	if state == "" {
		state = "all"
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		params := map[string]string{
			"labels":   label,
			"state":    state,
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}

		urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}

		var issues []Issue
		if err := json.Unmarshal(respBody, &issues); err != nil {
			return nil, fmt.Errorf("failed to parse issues response: %w", err)
		}

		for i := range issues {
			if issues[i].PullRequest == nil {
				allIssues = append(allIssues, issues[i])
			}
		}

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return allIssues, nil
}

// SearchIssueByTitle returns the first issue carrying the given label whose
// title contains fragment, or nil if none match. Used as the best-effort
// existence guard before creating an issue.
func (c *Client) SearchIssueByTitle(ctx context.Context, label, fragment string) (*Issue, error) {
	issues, err := c.ListIssuesByLabel(ctx, label, "all")
	if err != nil {
		return nil, err
	}
	for i := range issues {
		if strings.Contains(issues[i].Title, fragment) {
			return &issues[i], nil
		}
	}
	return nil, nil
}

// CreateIssue creates a new issue with the given title, body and labels.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	if labels == nil {
		labels = []string{}
	}
	reqBody := map[string]interface{}{
		"title":  title,
		"body":   body,
		"labels": labels,
	}

	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &issue, nil
}

// ReplaceLabels replaces the issue's full label set via PATCH.
func (c *Client) ReplaceLabels(ctx context.Context, number int, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	reqBody := map[string]interface{}{
		"labels": labels,
	}

	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	if _, _, err := c.doRequest(ctx, http.MethodPatch, urlStr, reqBody); err != nil {
		return fmt.Errorf("failed to update labels on issue #%d: %w", number, err)
	}
	return nil
}

// CreateComment posts a comment on the issue.
func (c *Client) CreateComment(ctx context.Context, number int, body string) error {
	reqBody := map[string]interface{}{
		"body": body,
	}

	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number)+"/comments", nil)
	if _, _, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}

// EnsureLabel creates the label if it does not exist. Returns true when the
// label was created. A lookup failure other than 404 is returned to the
// caller, which logs it and continues without failing the run.
func (c *Client) EnsureLabel(ctx context.Context, name, color, description string) (bool, error) {
	lookupURL := c.buildURL("/repos/"+c.repoPath()+"/labels/"+url.PathEscape(name), nil)
	_, _, err := c.doRequest(ctx, http.MethodGet, lookupURL, nil)
	if err == nil {
		return false, nil
	}
	if !IsNotFound(err) {
		return false, fmt.Errorf("failed to look up label %q: %w", name, err)
	}

	reqBody := map[string]interface{}{
		"name":        name,
		"color":       color,
		"description": description,
	}
	createURL := c.buildURL("/repos/"+c.repoPath()+"/labels", nil)
	if _, _, err := c.doRequest(ctx, http.MethodPost, createURL, reqBody); err != nil {
		return false, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return true, nil
}
