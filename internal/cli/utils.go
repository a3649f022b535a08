// Package cli formats Kioku results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// previewLen is how many characters of note content list and search output show.
const previewLen = 200

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// Status summarizes the store and provider for the status command.
type Status struct {
	Notes           int64  `json:"notes"`
	TopK            int    `json:"top_k"`
	Provider        string `json:"provider"`
	BaseURL         string `json:"base_url,omitempty"`
	EmbeddingModel  string `json:"embedding_model"`
	CompletionModel string `json:"completion_model"`
	StorageDriver   string `json:"storage_driver"`
	DatabasePath    string `json:"database_path,omitempty"`
	DiskUsageBytes  *int64 `json:"disk_usage_bytes,omitempty"`
}

// WriteAnswer writes an answer and its sources.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintf(w, "%s\n", strings.TrimSpace(answer.Answer))
	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%dms):\n", answer.QueryTime)
		for i, s := range answer.Sources {
			fmt.Fprintf(w, "  %d. [%d] %s (%.4f)\n", i+1, s.ID, s.Title, s.Score)
		}
	}
	return nil
}

// WriteResults writes ranked notes without a generated answer.
func WriteResults(w io.Writer, response *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d notes in %dms\n\n", response.Total, response.QueryTime)
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
		writeNoteText(w, r.Note)
	}
	return nil
}

// WriteNotes writes the stored notes in insertion order.
func WriteNotes(w io.Writer, notes []models.Note, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"count": len(notes), "notes": notes})
	}
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes yet.")
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(w, "[%d] %s  %s\n", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title)
		fmt.Fprintf(w, "     %s\n", utils.Truncate(utils.OneLine(n.Content), previewLen))
	}
	fmt.Fprintf(w, "\n%d notes\n", len(notes))
	return nil
}

// WriteNote writes a single saved note.
func WriteNote(w io.Writer, note models.Note, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, note)
	}
	fmt.Fprintf(w, "Saved note %d: %s\n", note.ID, note.Title)
	return nil
}

// WriteStatus writes store and provider information.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "notes:              %d\n", status.Notes)
	fmt.Fprintf(w, "top_k:              %d\n", status.TopK)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", *status.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "provider:           %s\n", status.Provider)
	if status.BaseURL != "" {
		fmt.Fprintf(w, "base_url:           %s\n", status.BaseURL)
	}
	fmt.Fprintf(w, "embedding_model:    %s\n", status.EmbeddingModel)
	fmt.Fprintf(w, "completion_model:   %s\n", status.CompletionModel)
	fmt.Fprintf(w, "storage_driver:     %s\n", status.StorageDriver)
	if status.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", status.DatabasePath)
	}
	return nil
}

func writeNoteText(w io.Writer, n models.Note) {
	fmt.Fprintf(w, "ID: %d\n", n.ID)
	if n.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", n.Title)
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(n.Content, previewLen))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
