package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// graphQLHandler decodes a GraphQL request and dispatches on query content.
func graphQLHandler(t *testing.T, handle func(query string, vars map[string]interface{}) string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("path = %q, want /graphql", r.URL.Path)
		}
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad GraphQL payload: %v", err)
		}
		w.Write([]byte(handle(req.Query, req.Variables)))
	}
}

func TestResolveProject(t *testing.T) {
	server := httptest.NewServer(graphQLHandler(t, func(query string, vars map[string]interface{}) string {
		if !strings.Contains(query, "projectV2") {
			t.Errorf("query = %q, want projectV2 lookup", query)
		}
		if vars["owner"] != "owner" || vars["repo"] != "repo" || vars["number"] != float64(3) {
			t.Errorf("vars = %v", vars)
		}
		return `{"data":{"repository":{"projectV2":{"id":"PVT_abc123"}}}}`
	}))
	defer server.Close()

	id, err := testClient(server.URL).ResolveProject(context.Background(), 3)
	if err != nil {
		t.Fatalf("ResolveProject() error: %v", err)
	}
	if id != "PVT_abc123" {
		t.Errorf("ResolveProject() = %q, want PVT_abc123", id)
	}
}

func TestResolveProjectNotFound(t *testing.T) {
	server := httptest.NewServer(graphQLHandler(t, func(query string, vars map[string]interface{}) string {
		return `{"data":{"repository":{"projectV2":null}}}`
	}))
	defer server.Close()

	if _, err := testClient(server.URL).ResolveProject(context.Background(), 99); err == nil {
		t.Error("ResolveProject() = nil error for missing project, want error")
	}
}

func TestAddIssueToProject(t *testing.T) {
	server := httptest.NewServer(graphQLHandler(t, func(query string, vars map[string]interface{}) string {
		if !strings.Contains(query, "addProjectV2ItemById") {
			t.Errorf("query = %q, want addProjectV2ItemById", query)
		}
		if vars["projectId"] != "PVT_abc" || vars["contentId"] != "I_def" {
			t.Errorf("vars = %v", vars)
		}
		return `{"data":{"addProjectV2ItemById":{"item":{"id":"PVTI_1"}}}}`
	}))
	defer server.Close()

	if err := testClient(server.URL).AddIssueToProject(context.Background(), "PVT_abc", "I_def"); err != nil {
		t.Fatalf("AddIssueToProject() error: %v", err)
	}
}

func TestAddDraftItem(t *testing.T) {
	server := httptest.NewServer(graphQLHandler(t, func(query string, vars map[string]interface{}) string {
		if !strings.Contains(query, "addProjectV2DraftIssue") {
			t.Errorf("query = %q, want addProjectV2DraftIssue", query)
		}
		if vars["title"] != "Paper Review: P1" {
			t.Errorf("title var = %v", vars["title"])
		}
		return `{"data":{"addProjectV2DraftIssue":{"projectItem":{"id":"PVTI_2"}}}}`
	}))
	defer server.Close()

	if err := testClient(server.URL).AddDraftItem(context.Background(), "PVT_abc", "Paper Review: P1"); err != nil {
		t.Fatalf("AddDraftItem() error: %v", err)
	}
}

func TestGraphQLErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(graphQLHandler(t, func(query string, vars map[string]interface{}) string {
		return `{"data":null,"errors":[{"message":"Resource not accessible by integration"}]}`
	}))
	defer server.Close()

	err := testClient(server.URL).AddIssueToProject(context.Background(), "PVT_abc", "I_def")
	if err == nil {
		t.Fatal("AddIssueToProject() = nil error, want GraphQL error")
	}
	if !strings.Contains(err.Error(), "Resource not accessible") {
		t.Errorf("error = %v", err)
	}
}
