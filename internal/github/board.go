package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ProjectV2 board operations. Boards only exist in the GraphQL API; the rest
// of the client stays on REST. Board placement is best-effort decoration:
// callers log failures and never roll back issue creation over them.

// graphQLRequest is the standard GraphQL POST payload.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLError is a single error entry in a GraphQL response.
type graphQLError struct {
	Message string `json:"message"`
}

// doGraphQL posts a query and unmarshals the "data" object into out.
func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GraphQLURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read GraphQL response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("GraphQL error: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse GraphQL data: %w", err)
		}
	}
	return nil
}

// ResolveProject resolves a numeric board reference to the opaque ProjectV2
// node ID via the repository's linked projects.
func (c *Client) ResolveProject(ctx context.Context, number int) (string, error) {
	const query = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    projectV2(number: $number) { id }
  }
}`

	var data struct {
		Repository struct {
			ProjectV2 *struct {
				ID string `json:"id"`
			} `json:"projectV2"`
		} `json:"repository"`
	}
	vars := map[string]interface{}{
		"owner":  c.Owner,
		"repo":   c.Repo,
		"number": number,
	}
	if err := c.doGraphQL(ctx, query, vars, &data); err != nil {
		return "", fmt.Errorf("failed to resolve project %d: %w", number, err)
	}
	if data.Repository.ProjectV2 == nil || data.Repository.ProjectV2.ID == "" {
		return "", fmt.Errorf("project %d not found on %s", number, c.repoPath())
	}
	return data.Repository.ProjectV2.ID, nil
}

// AddIssueToProject links an issue (by GraphQL node ID) to a board.
func (c *Client) AddIssueToProject(ctx context.Context, projectID, contentID string) error {
	const mutation = `mutation($projectId: ID!, $contentId: ID!) {
  addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
    item { id }
  }
}`

	vars := map[string]interface{}{
		"projectId": projectID,
		"contentId": contentID,
	}
	if err := c.doGraphQL(ctx, mutation, vars, nil); err != nil {
		return fmt.Errorf("failed to add issue to project: %w", err)
	}
	return nil
}

// AddDraftItem creates a placeholder board entry carrying only the title.
// Fallback for when linking the real issue fails.
func (c *Client) AddDraftItem(ctx context.Context, projectID, title string) error {
	const mutation = `mutation($projectId: ID!, $title: String!) {
  addProjectV2DraftIssue(input: {projectId: $projectId, title: $title}) {
    projectItem { id }
  }
}`

	vars := map[string]interface{}{
		"projectId": projectID,
		"title":     title,
	}
	if err := c.doGraphQL(ctx, mutation, vars, nil); err != nil {
		return fmt.Errorf("failed to add draft item to project: %w", err)
	}
	return nil
}
