package models

import (
	"fmt"
	"strings"
)

// MaxRetrieveLimit caps how many ranked entries a single retrieve request may ask for.
const MaxRetrieveLimit = 100

// Question is an answer or retrieve request.
type Question struct {
	Question string `json:"question"`
	Limit    int    `json:"limit,omitempty"` // retrieve only; 0 means the configured top K
}

// Validate ensures the question is not blank and clamps the limit. The question text
// itself is left untouched.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w", ErrEmptyQuestion)
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Limit > MaxRetrieveLimit {
		q.Limit = MaxRetrieveLimit
	}
	return nil
}
