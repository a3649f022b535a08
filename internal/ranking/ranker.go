// Package ranking orders stored notes by embedding similarity to a query.
package ranking

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// MismatchHandler receives entries excluded because their embedding length differs
// from the query's.
type MismatchHandler func(noteID int64, err error)

// Ranker scores entries by cosine similarity and keeps the best K. It holds no state
// between calls: every Rank recomputes over the entries it is given.
type Ranker struct {
	config     *RankingConfig
	logger     *zap.Logger
	onMismatch MismatchHandler
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets a logger for excluded entries.
func WithLogger(l *zap.Logger) RankerOption {
	return func(r *Ranker) { r.logger = l }
}

// WithMismatchHandler registers a callback for entries excluded on length mismatch.
func WithMismatchHandler(h MismatchHandler) RankerOption {
	return func(r *Ranker) { r.onMismatch = h }
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig, opts ...RankerOption) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()

	r := &Ranker{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TopK returns the configured context size.
func (r *Ranker) TopK() int {
	return r.config.TopK
}

// Rank scores every entry against query and returns at most k entries by descending
// score. k <= 0 uses the configured TopK. Entries with equal scores keep their input
// order. Entries whose embedding length differs from the query are left out.
func (r *Ranker) Rank(query []float32, entries []models.Entry, k int) []*models.ScoredEntry {
	if k <= 0 {
		k = r.config.TopK
	}

	scored := make([]*models.ScoredEntry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		score, err := vector.CosineSimilarity(e.Embedding, query)
		if err != nil {
			r.excluded(e.Note.ID, err)
			continue
		}
		scored = append(scored, &models.ScoredEntry{
			Note:      e.Note,
			Embedding: e.Embedding,
			Score:     score,
		})
	}

	slices.SortStableFunc(scored, func(a, b *models.ScoredEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	for i, s := range scored {
		s.Rank = i + 1
	}
	return scored
}

func (r *Ranker) excluded(id int64, err error) {
	ierr := models.IntegrityError("rank note", err)
	r.logger.Warn("excluding note from ranking",
		zap.Int64("note_id", id),
		zap.Error(ierr))
	if r.onMismatch != nil {
		r.onMismatch(id, ierr)
	}
}
