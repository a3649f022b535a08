package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Handlers implements the note tools on top of a search engine.
type Handlers struct {
	engine *search.Engine
	logger *zap.Logger
}

// AddNote handles the add_note tool.
func (h *Handlers) AddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := models.NoteInput{
		Title:   request.GetString("title", ""),
		Content: request.GetString("content", ""),
	}
	note, err := h.engine.Ingest(ctx, &in)
	if err != nil {
		return h.toolError("failed to add note", err), nil
	}
	return jsonResult(note)
}

// ListNotes handles the list_notes tool.
func (h *Handlers) ListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := h.engine.ListNotes(ctx)
	if err != nil {
		return h.toolError("failed to list notes", err), nil
	}
	return jsonResult(map[string]interface{}{"count": len(notes), "notes": notes})
}

// DeleteNote handles the delete_note tool. Unknown ids succeed as a no-op.
func (h *Handlers) DeleteNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a number"), nil
	}
	if err := h.engine.DeleteNote(ctx, int64(id)); err != nil {
		return h.toolError("failed to delete note", err), nil
	}
	return jsonResult(map[string]interface{}{"id": id, "status": "deleted"})
}

// AskNotes handles the ask_notes tool.
func (h *Handlers) AskNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	answer, err := h.engine.Answer(ctx, &models.Question{Question: question})
	if err != nil {
		return h.toolError("failed to answer", err), nil
	}
	return jsonResult(answer)
}

// SearchNotes handles the search_notes tool.
func (h *Handlers) SearchNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	q := &models.Question{Question: question, Limit: request.GetInt("limit", 0)}
	response, err := h.engine.Retrieve(ctx, q)
	if err != nil {
		return h.toolError("search failed", err), nil
	}
	return jsonResult(response)
}

func (h *Handlers) toolError(msg string, err error) *mcp.CallToolResult {
	h.logger.Warn(msg, zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
