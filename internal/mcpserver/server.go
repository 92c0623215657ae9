// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the file-search index as tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chhoumann/quickadd-sub002/internal/index"
	"github.com/chhoumann/quickadd-sub002/internal/models"
	"github.com/chhoumann/quickadd-sub002/internal/storage"
)

// Server wraps the MCP server with search-index tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	idx   *index.FileIndex
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, idx *index.FileIndex) *Server {
	s := &Server{store: store, idx: idx}

	s.mcp = server.NewMCPServer(
		"quickadd-index",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Fuzzy-search indexed files by name and alias. "+
			"Results are ranked; lower score is better. Queries containing '#' "+
			"search headings (file#heading) or block anchors (file#^block)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("current", mcp.Description("Path of the file currently being edited, for context boosts")),
		mcp.WithString("limit", mcp.Description("Max results (default 20)")),
	), s.searchFiles)

	s.mcp.AddTool(mcp.NewTool("search_headings",
		mcp.WithDescription("Search headings across all indexed files."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Heading text to search for")),
	), s.searchHeadings)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the indexed record for a file: aliases, headings, block anchors, tags, and links."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. folder/note.md)")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a Markdown file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Record that a file was opened so recent files rank higher in searches."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
	), s.openDocument)

	s.mcp.AddTool(mcp.NewTool("index_status",
		mcp.WithDescription("Report how many files are indexed and how many unresolved link targets exist."),
	), s.indexStatus)

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

// searchHit is the wire shape for one search result.
type searchHit struct {
	Path    string  `json:"path,omitempty"`
	Display string  `json:"display"`
	Type    string  `json:"type"`
	Score   float64 `json:"score"`
}

func toHits(results []models.SearchResult) []searchHit {
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		h := searchHit{Display: r.DisplayText, Type: string(r.MatchType), Score: r.Score}
		if r.Document != nil {
			h.Path = r.Document.Key
		}
		hits = append(hits, h)
	}
	return hits
}

func (s *Server) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.idx.EnsureIndexed(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := 20
	if raw, err := req.RequireString("limit"); err == nil {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			limit = n
		}
	}
	sctx := models.SearchContext{}
	if current, err := req.RequireString("current"); err == nil {
		sctx.CurrentKey = current
	}

	results := s.idx.Search(query, sctx, limit)
	out, _ := json.MarshalIndent(toHits(results), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.idx.EnsureIndexed(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := s.idx.Search("#"+query, models.SearchContext{}, 20)
	out, _ := json.MarshalIndent(toHits(results), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.idx.EnsureIndexed(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, ok := s.idx.GetDocument(path)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not indexed: %s", path)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) openDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.idx.OnDocumentOpened(path)
	return mcp.NewToolResultText(fmt.Sprintf("opened: %s at %s", path, time.Now().Format(time.RFC3339))), nil
}

func (s *Server) indexStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.idx.EnsureIndexed(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := map[string]int{
		"documents":  s.idx.IndexedCount(),
		"unresolved": s.idx.UnresolvedCount(),
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
