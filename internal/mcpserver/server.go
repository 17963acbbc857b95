// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the documentation catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/catalog"
	"github.com/starford/docgraph/internal/storage"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp   *server.MCPServer
	live  *catalog.Live
	store storage.Provider
}

// New creates a new MCP server with all catalog tools registered.
func New(live *catalog.Live, store storage.Provider, version string) *Server {
	s := &Server{live: live, store: store}

	s.mcp = server.NewMCPServer(
		"docgraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documentation files with their title, type and components."),
		mcp.WithString("type", mcp.Description("Optional document type filter (overview, architecture, decision, implementation, operations, plan, other)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw Markdown of a documentation file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the docs root (e.g. 02-decisions/001-use-go.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_decisions",
		mcp.WithDescription("List architecture decision records with their status and sections."),
		mcp.WithString("status", mcp.Description("Optional status filter (e.g. accepted)")),
	), s.listDecisions)

	s.mcp.AddTool(mcp.NewTool("component_documents",
		mcp.WithDescription("Find the documents that describe a system component."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Component name (e.g. RiskEngine)")),
	), s.componentDocuments)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_conventions",
		mcp.WithDescription("Returns the documentation layout conventions used to classify and link files."),
	), s.getConventions)

	s.mcp.AddResource(
		mcp.NewResource(ConventionsURI, "Documentation Conventions",
			mcp.WithResourceDescription("How documentation files are classified, linked and parsed."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.live.Current().ListDocuments(req.GetString("type", "")))
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.live.Current().GetDocument(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listDecisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.live.Current().ListDecisions(req.GetString("status", "")))
}

func (s *Server) componentDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := s.live.Current().ComponentDocuments(name)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown component: %s", name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(docs)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl := s.live.Current().Backlinks(path)
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getConventions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(Conventions), nil
}

func (s *Server) readConventionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ConventionsURI,
			MIMEType: "text/markdown",
			Text:     Conventions,
		},
	}, nil
}
