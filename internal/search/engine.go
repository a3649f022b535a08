// Package search runs the note pipeline: ingestion, retrieval, and answering.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/provider"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/storage"
)

// Engine wires the embedder, store, ranker, and completer. Operations are independent;
// the store is the only shared state.
type Engine struct {
	store     storage.VectorStore
	embedder  provider.Embedder
	completer provider.Completer
	ranker    *ranking.Ranker
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for pipeline events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with the given dependencies. A nil ranker uses the default top K.
func NewEngine(
	store storage.VectorStore,
	embedder provider.Embedder,
	completer provider.Completer,
	ranker *ranking.Ranker,
	opts ...EngineOption,
) *Engine {
	if ranker == nil {
		ranker = ranking.NewRanker(nil)
	}
	e := &Engine{
		store:     store,
		embedder:  embedder,
		completer: completer,
		ranker:    ranker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying note store.
func (e *Engine) Store() storage.VectorStore {
	return e.store
}

// TopK returns the number of notes placed in an answer's context.
func (e *Engine) TopK() int {
	return e.ranker.TopK()
}

// Ingest embeds "<title>: <content>" and saves the note with its embedding.
// Nothing is persisted when embedding fails.
func (e *Engine) Ingest(ctx context.Context, in *models.NoteInput) (models.Note, error) {
	if err := ProcessNote(in); err != nil {
		return models.Note{}, err
	}
	emb, err := e.embedder.Embed(ctx, models.NoteText(in.Title, in.Content))
	if err != nil {
		return models.Note{}, fmt.Errorf("ingest: %w", withKind(models.KindProvider, "embed note", err))
	}
	note, err := e.store.Save(ctx, in.Title, in.Content, emb)
	if err != nil {
		return models.Note{}, fmt.Errorf("ingest: %w", err)
	}
	e.logger.Info("note ingested",
		zap.Int64("note_id", note.ID),
		zap.String("title", note.Title),
		zap.Int("dimensions", len(emb)))
	return note, nil
}

// ListNotes returns all notes in insertion order.
func (e *Engine) ListNotes(ctx context.Context) ([]models.Note, error) {
	return e.store.List(ctx)
}

// DeleteNote removes a note. Unknown ids succeed.
func (e *Engine) DeleteNote(ctx context.Context, id int64) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.logger.Info("note deleted", zap.Int64("note_id", id))
	return nil
}

// Retrieve embeds the question and returns the ranked context set without generating
// an answer. q.Limit overrides the configured top K when positive.
func (e *Engine) Retrieve(ctx context.Context, q *models.Question) (*models.RetrieveResponse, error) {
	start := time.Now()
	if err := ProcessQuestion(q); err != nil {
		return nil, err
	}
	ranked, err := e.rank(ctx, q.Question, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return &models.RetrieveResponse{
		Question:  q.Question,
		Results:   ranked,
		Total:     len(ranked),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Answer runs embed, fetch, rank, and generate strictly in sequence. An empty store still
// issues the completion request with an empty context. Any failure returns an error and
// no partial answer.
func (e *Engine) Answer(ctx context.Context, q *models.Question) (*models.Answer, error) {
	start := time.Now()
	if err := ProcessQuestion(q); err != nil {
		return nil, err
	}
	opID := uuid.New().String()
	log := e.logger.With(zap.String("operation_id", opID))

	ranked, err := e.rank(ctx, q.Question, 0)
	if err != nil {
		log.Warn("answer failed", zap.Error(err))
		return nil, fmt.Errorf("answer: %w", err)
	}
	contextBlock := ranking.BuildContext(ranked)
	log.Debug("context assembled",
		zap.Int("entries", len(ranked)),
		zap.Int("context_chars", len(contextBlock)))

	text, err := e.ComposeAndAsk(ctx, contextBlock, q.Question)
	if err != nil {
		log.Warn("answer failed", zap.Error(err))
		return nil, fmt.Errorf("answer: %w", err)
	}

	elapsed := time.Since(start).Milliseconds()
	log.Info("question answered",
		zap.Int("sources", len(ranked)),
		zap.Int64("query_time_ms", elapsed))
	return &models.Answer{
		OperationID: opID,
		Question:    q.Question,
		Answer:      text,
		Sources:     models.SourcesFrom(ranked),
		QueryTime:   elapsed,
	}, nil
}

// ComposeAndAsk builds the prompt and sends it as one completion request. The response
// is returned unmodified.
func (e *Engine) ComposeAndAsk(ctx context.Context, contextBlock, question string) (string, error) {
	text, err := e.completer.Complete(ctx, BuildPrompt(contextBlock, question))
	if err != nil {
		return "", withKind(models.KindGeneration, "complete", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", models.GenerationError("complete", errors.New("empty completion"))
	}
	return text, nil
}

func (e *Engine) rank(ctx context.Context, question string, k int) ([]*models.ScoredEntry, error) {
	qvec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, withKind(models.KindProvider, "embed question", err)
	}
	entries, err := e.store.AllWithEmbeddings(ctx)
	if err != nil {
		return nil, withKind(models.KindStorage, "load notes", err)
	}
	return e.ranker.Rank(qvec, entries, k), nil
}

// withKind tags errors from third-party implementations that carry no kind.
func withKind(kind models.ErrorKind, op string, err error) error {
	if _, ok := models.KindOf(err); ok {
		return err
	}
	return &models.Error{Kind: kind, Op: op, Err: err}
}
