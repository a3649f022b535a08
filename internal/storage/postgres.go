package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// PostgresStore implements VectorStore on PostgreSQL. Embeddings use the same JSON
// text column as SQLite so databases can be exported between drivers.
type PostgresStore struct {
	db   *sql.DB
	opts options
}

// NewPostgresStore opens a connection, verifies it, and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, models.StorageError("open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, models.StorageError("ping database", err)
	}
	if err := initPostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, models.StorageError("initialize schema", err)
	}
	return &PostgresStore{db: db, opts: buildOptions(opts)}, nil
}

func initPostgresSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding_json TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(title);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save inserts the note and its embedding in one statement.
func (s *PostgresStore) Save(ctx context.Context, title, content string, embedding []float32) (models.Note, error) {
	raw, err := vector.EncodeEmbedding(embedding)
	if err != nil {
		return models.Note{}, models.StorageError("encode embedding", err)
	}
	note := models.Note{Title: title, Content: content}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO notes (title, content, embedding_json) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		title, content, raw,
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return models.Note{}, models.StorageError("save note", err)
	}
	s.opts.logger.Debug("saved note", zap.Int64("note_id", note.ID), zap.Int("dimensions", len(embedding)))
	return note, nil
}

// List returns all notes ordered by id.
func (s *PostgresStore) List(ctx context.Context) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at FROM notes ORDER BY id`)
	if err != nil {
		return nil, models.StorageError("list notes", err)
	}
	return scanNotes(rows)
}

// AllWithEmbeddings returns every note with a decodable embedding, ordered by id.
func (s *PostgresStore) AllWithEmbeddings(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, embedding_json, created_at FROM notes ORDER BY id`)
	if err != nil {
		return nil, models.StorageError("load embeddings", err)
	}
	return scanEntries(rows, &s.opts)
}

// Exists reports whether a note with this exact title and content is stored.
func (s *PostgresStore) Exists(ctx context.Context, title, content string) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM notes WHERE title = $1 AND content = $2)`, title, content,
	).Scan(&found)
	if err != nil {
		return false, models.StorageError("find note", err)
	}
	return found, nil
}

// Delete removes the note with id. Unknown ids are ignored.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return models.StorageError(fmt.Sprintf("delete note %d", id), err)
	}
	return nil
}

// Count returns the number of stored notes.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, models.StorageError("count notes", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
