package ranking

import (
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

// FormatEntry renders one note the way it appears in an answer's context.
func FormatEntry(n models.Note) string {
	return "Title: " + n.Title + "\n\nContent: " + n.Content + "\n"
}

// BuildContext joins the formatted entries with a newline. An empty set yields "".
func BuildContext(entries []*models.ScoredEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = FormatEntry(e.Note)
	}
	return strings.Join(parts, "\n")
}
