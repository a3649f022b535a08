// Package storage persists notes together with their embeddings.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
	"go.uber.org/zap"
)

// VectorStore persists notes and their embeddings. A note and its embedding are
// written by the same statement, so no store ever holds one without the other.
type VectorStore interface {
	// Save stores a new note and returns it with its assigned id.
	Save(ctx context.Context, title, content string, embedding []float32) (models.Note, error)
	// List returns all notes in insertion order, without embeddings.
	List(ctx context.Context) ([]models.Note, error)
	// AllWithEmbeddings returns every note whose embedding can be decoded.
	// Undecodable records are skipped and reported to the integrity handler.
	AllWithEmbeddings(ctx context.Context) ([]models.Entry, error)
	// Exists reports whether a note with exactly this title and content is stored.
	Exists(ctx context.Context, title, content string) (bool, error)
	// Delete removes a note. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// IntegrityHandler receives records skipped because they cannot be used.
type IntegrityHandler func(noteID int64, err error)

// Option configures a store.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	onIntegrity IntegrityHandler
}

// WithLogger sets a logger for debug output and integrity warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIntegrityHandler registers a callback for skipped records.
func WithIntegrityHandler(h IntegrityHandler) Option {
	return func(o *options) { o.onIntegrity = h }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, opts ...Option) (VectorStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return NewSQLiteStore(cfg.DatabasePath, opts...)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// reportIntegrity logs a skipped record and forwards it to the handler.
func (o *options) reportIntegrity(id int64, err error) {
	ierr := models.IntegrityError(fmt.Sprintf("note %d", id), err)
	o.logger.Warn("skipping note with unusable embedding",
		zap.Int64("note_id", id),
		zap.Error(ierr))
	if o.onIntegrity != nil {
		o.onIntegrity(id, ierr)
	}
}

// scanEntries reads (id, title, content, embedding_json, created_at) rows, decoding
// embeddings and skipping records that fail to decode.
func scanEntries(rows *sql.Rows, o *options) ([]models.Entry, error) {
	defer rows.Close()
	var entries []models.Entry
	for rows.Next() {
		var (
			n   models.Note
			raw string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &raw, &n.CreatedAt); err != nil {
			return nil, models.StorageError("scan note", err)
		}
		emb, err := vector.DecodeEmbedding(raw)
		if err != nil {
			o.reportIntegrity(n.ID, err)
			continue
		}
		entries = append(entries, models.Entry{Note: n, Embedding: emb})
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("read notes", err)
	}
	return entries, nil
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, models.StorageError("scan note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("read notes", err)
	}
	return notes, nil
}
