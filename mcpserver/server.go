// Package mcpserver exposes the campus assistant as Model Context Protocol
// tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unirag/campus-rag/assistant"
)

const (
	Name    = "campus-rag"
	Version = "1.0.0"
)

// NewServer registers the assistant tools on a new MCP server.
func NewServer(a *assistant.Assistant) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Answers university questions: class timetables by group, room, teacher, day or slot, and general questions from the university documents."),
	)

	// Q&A
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("ask", "Answer a free-text question about the university timetable or university life", GetAskSchema()),
		HandleAsk(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("classify-query", "Show how a question would be routed and which search criteria were extracted from it", GetClassifySchema()),
		HandleClassify(a),
	)

	// Direct retrieval
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-schedule", "Search the timetable with explicit criteria; categories are combined with AND, values within a category with OR", GetSearchScheduleSchema()),
		HandleSearchSchedule(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-documents", "Semantic search over the general university documents", GetSearchDocumentsSchema()),
		HandleSearchDocuments(a),
	)

	return mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the input closes.
func ServeStdio(a *assistant.Assistant) error {
	return server.ServeStdio(NewServer(a))
}
