package search

import "github.com/hyperjump/kioku/internal/models"

// ProcessQuestion validates and applies defaults to the question.
func ProcessQuestion(q *models.Question) error {
	return q.Validate()
}

// ProcessNote validates and trims a note before ingestion.
func ProcessNote(in *models.NoteInput) error {
	return in.Validate()
}
