package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chhoumann/quickadd-sub002/internal/testutil"
)

func testServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	idx, store := testutil.TestIndex(t, files)
	return New(store, idx)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_files":
		result, err = srv.searchFiles(ctx, req)
	case "search_headings":
		result, err = srv.searchHeadings(ctx, req)
	case "get_document":
		result, err = srv.getDocument(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "open_document":
		result, err = srv.openDocument(ctx, req)
	case "index_status":
		result, err = srv.indexStatus(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchFilesTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"Plan.md":     "# Plan",
		"Planning.md": "# Planning",
	})

	r := callTool(t, srv, "search_files", map[string]interface{}{"query": "plan"})
	if r.IsError {
		t.Fatalf("tool returned error: %s", resultText(r))
	}

	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 2 || hits[0].Path != "Plan.md" || hits[0].Type != "exact" {
		t.Errorf("hits = %+v, want Plan.md exact first", hits)
	}
}

func TestSearchFilesToolLimit(t *testing.T) {
	srv := testServer(t, map[string]string{
		"Plan A.md": "a",
		"Plan B.md": "b",
		"Plan C.md": "c",
	})

	r := callTool(t, srv, "search_files", map[string]interface{}{"query": "plan", "limit": "2"})
	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("limit 2 returned %d hits", len(hits))
	}
}

func TestSearchHeadingsTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"Guide.md": "# Setup\n## Install\n",
		"Other.md": "# Overview\n",
	})

	r := callTool(t, srv, "search_headings", map[string]interface{}{"query": "setup"})
	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "Guide.md" || hits[0].Display != "Setup" {
		t.Errorf("hits = %+v, want Guide.md#Setup", hits)
	}
}

func TestGetDocumentTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"topics/hello.md": "---\naliases: [Hi]\n---\n# Welcome\n",
	})

	r := callTool(t, srv, "get_document", map[string]interface{}{"path": "topics/hello.md"})
	if r.IsError {
		t.Fatalf("tool returned error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"display_name": "hello"`) || !strings.Contains(text, `"Hi"`) {
		t.Errorf("document payload missing fields: %s", text)
	}

	r = callTool(t, srv, "get_document", map[string]interface{}{"path": "missing.md"})
	if !r.IsError {
		t.Error("missing document should be an error result")
	}
}

func TestReadDocumentTool(t *testing.T) {
	srv := testServer(t, map[string]string{"note.md": "# Note\nBody"})

	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "note.md"})
	if got := resultText(r); got != "# Note\nBody" {
		t.Errorf("read result = %q", got)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("missing file should be an error result")
	}
}

func TestOpenDocumentBoostsSearch(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a/Report.md": "# Report",
		"b/Report.md": "# Report",
	})

	callTool(t, srv, "search_files", map[string]interface{}{"query": "report"})
	callTool(t, srv, "open_document", map[string]interface{}{"path": "b/Report.md"})

	r := callTool(t, srv, "search_files", map[string]interface{}{"query": "report"})
	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 2 || hits[0].Path != "b/Report.md" {
		t.Errorf("hits = %+v, want opened document first", hits)
	}
}

func TestIndexStatusTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "See [[Nowhere]].\n",
		"b.md": "# B",
	})

	r := callTool(t, srv, "index_status", map[string]interface{}{})
	var status map[string]int
	if err := json.Unmarshal([]byte(resultText(r)), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status["documents"] != 2 || status["unresolved"] != 1 {
		t.Errorf("status = %v", status)
	}
}
