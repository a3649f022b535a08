// Package models defines core data structures for notes, embeddings, and answers.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Note is a stored note. Notes are immutable once created.
type Note struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullText is the text embedded for a note: "<title>: <content>".
func (n *Note) FullText() string {
	return NoteText(n.Title, n.Content)
}

// NoteText joins a title and content the way notes are embedded.
func NoteText(title, content string) string {
	return title + ": " + content
}

// Entry is a note together with its stored embedding.
type Entry struct {
	Note      Note
	Embedding []float32
}

// NoteInput is the input for creating a note.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate trims the input and rejects notes with neither title nor content.
func (in *NoteInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" && in.Content == "" {
		return fmt.Errorf("%w: title and content are both empty", ErrEmptyNote)
	}
	return nil
}
