// Package mcp exposes the note pipeline as Model Context Protocol tools.
package mcp

import (
	"github.com/hyperjump/kioku/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServerName and ServerVersion identify Kioku to MCP clients.
const (
	ServerName    = "Kioku Notes"
	ServerVersion = "0.1.0"
)

// NewServer returns an MCP server with all note tools registered.
func NewServer(engine *search.Engine, logger *zap.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, engine, logger)
	return server
}

// RegisterTools registers all note tools with server.
func RegisterTools(server *mcpserver.MCPServer, engine *search.Engine, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	handlers := &Handlers{engine: engine, logger: logger}

	server.AddTool(mcp.Tool{
		Name:        "add_note",
		Description: "Save a note. The note is embedded so later questions can find it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short note title",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Note body",
				},
			},
			Required: []string{"content"},
		},
	}, handlers.AddNote)

	server.AddTool(mcp.Tool{
		Name:        "list_notes",
		Description: "List all saved notes in the order they were added.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListNotes)

	server.AddTool(mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note by id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "number",
					"description": "Note id as returned by add_note or list_notes",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.DeleteNote)

	server.AddTool(mcp.Tool{
		Name:        "ask_notes",
		Description: "Answer a question using only the most relevant saved notes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer from the notes",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskNotes)

	server.AddTool(mcp.Tool{
		Name:        "search_notes",
		Description: "Return the notes most similar to a question, with scores, without generating an answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Search text",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of notes to return (default: configured top_k)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.SearchNotes)

	return handlers
}
