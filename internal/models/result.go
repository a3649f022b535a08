package models

// ScoredEntry is a note ranked against a query embedding. It only lives for one ranking pass.
type ScoredEntry struct {
	Note      Note      `json:"note"`
	Embedding []float32 `json:"-"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
}

// Source identifies a note that went into an answer's context.
type Source struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Answer is the response for an answer request.
type Answer struct {
	OperationID string   `json:"operation_id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Sources     []Source `json:"sources"`
	QueryTime   int64    `json:"query_time_ms"`
}

// RetrieveResponse is the response for a retrieve request (ranking without generation).
type RetrieveResponse struct {
	Question  string         `json:"question"`
	Results   []*ScoredEntry `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
}

// SourcesFrom converts ranked entries into answer sources, preserving order.
func SourcesFrom(entries []*ScoredEntry) []Source {
	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, Source{ID: e.Note.ID, Title: e.Note.Title, Score: e.Score})
	}
	return sources
}
