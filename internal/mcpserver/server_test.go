package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/docgraph/internal/catalog"
	"github.com/starford/docgraph/internal/parser"
	"github.com/starford/docgraph/internal/scanner"
	"github.com/starford/docgraph/internal/testutil"
)

const decisionDoc = `# Use Go

Status: accepted

## Context
The RiskEngine needs low latency.

## Decision
Write it in Go.

## Consequences
Faster builds.
`

func testServer(t *testing.T) *Server {
	t.Helper()
	_, store := testutil.WriteCorpus(t, map[string]string{
		"01-architecture/risk.md":    "# Risk\n\nThe RiskEngine follows [ADR](../02-decisions/001-use-go.md).\n",
		"02-decisions/001-use-go.md": decisionDoc,
		"05-operations/runbook.md":   "# Runbook\n\nRestart the Risk Engine.\n",
	})
	logger, _ := testutil.BufferLogger()
	res, err := scanner.New(store, parser.New(nil, parser.DefaultLimits()), logger).Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return New(catalog.NewLive(catalog.New(res)), store, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_documents":      srv.listDocuments,
		"read_document":       srv.readDocument,
		"list_decisions":      srv.listDecisions,
		"component_documents": srv.componentDocuments,
		"get_backlinks":       srv.getBacklinks,
		"get_conventions":     srv.getConventions,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}

	result, err := h(ctx, req)
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

func TestListDocuments(t *testing.T) {
	srv := testServer(t)

	var all []catalog.DocumentSummary
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_documents", nil))), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("documents = %d, want 3", len(all))
	}

	var ops []catalog.DocumentSummary
	r := callTool(t, srv, "list_documents", map[string]any{"type": "operations"})
	if err := json.Unmarshal([]byte(resultText(r)), &ops); err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 {
		t.Fatalf("operations documents = %d, want 1", len(ops))
	}
	if ops[0].Path != "05-operations/runbook.md" {
		t.Errorf("path = %q", ops[0].Path)
	}
	if len(ops[0].Components) != 1 || ops[0].Components[0] != "RiskEngine" {
		t.Errorf("components = %v, want [RiskEngine]", ops[0].Components)
	}
}

func TestReadDocument(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_document", map[string]any{"path": "02-decisions/001-use-go.md"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if text := resultText(r); text != decisionDoc {
		t.Errorf("read result = %q", text)
	}

	if r := callTool(t, srv, "read_document", map[string]any{"path": "nope.md"}); !r.IsError {
		t.Error("expected error for missing document")
	}
	if r := callTool(t, srv, "read_document", map[string]any{}); !r.IsError {
		t.Error("expected error for missing path argument")
	}
}

func TestListDecisions(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "list_decisions", map[string]any{"status": "ACCEPTED"}))
	if !strings.Contains(text, `"id": "001"`) || !strings.Contains(text, "Write it in Go.") {
		t.Errorf("accepted decisions = %s", text)
	}

	if text := resultText(callTool(t, srv, "list_decisions", map[string]any{"status": "superseded"})); text != "[]" {
		t.Errorf("superseded decisions = %s, want []", text)
	}
}

func TestComponentDocuments(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "component_documents", map[string]any{"name": "riskengine"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	for _, p := range []string{"01-architecture/risk.md", "05-operations/runbook.md"} {
		if !strings.Contains(resultText(r), p) {
			t.Errorf("result missing %s: %s", p, resultText(r))
		}
	}

	if r := callTool(t, srv, "component_documents", map[string]any{"name": "Unknown"}); !r.IsError {
		t.Error("expected error for unknown component")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]any{"path": "02-decisions/001-use-go.md"})
	if text := resultText(r); text != "01-architecture/risk.md" {
		t.Errorf("backlinks = %q, want 01-architecture/risk.md", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"path": "05-operations/runbook.md"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestGetConventions(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "get_conventions", nil)); text != Conventions {
		t.Error("get_conventions did not return the conventions document")
	}

	contents, err := srv.readConventionsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	if uri := contents[0].(mcp.TextResourceContents).URI; uri != ConventionsURI {
		t.Errorf("URI = %q", uri)
	}
}
