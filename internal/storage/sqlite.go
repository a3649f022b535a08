package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// SQLiteStore implements VectorStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	// mu serializes writers; readers go straight to the WAL-mode database.
	mu   sync.Mutex
	opts options
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private
// in-memory database.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	memory := dbPath == ":memory:"
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, models.StorageError("create database directory", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", sqliteDSN(dbPath, memory))
	if err != nil {
		return nil, models.StorageError("open database", err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, models.StorageError("initialize schema", err)
	}

	s := &SQLiteStore{db: db, path: dbPath, opts: buildOptions(opts)}
	s.opts.logger.Debug("opened sqlite store", zap.String("path", dbPath))
	return s, nil
}

// sqliteDSN applies the busy timeout, and WAL for files, to every pooled connection.
func sqliteDSN(dbPath string, memory bool) string {
	dsn := dbPath + "?_busy_timeout=5000"
	if !memory {
		dsn += "&_journal_mode=WAL"
	}
	return dsn
}

func initSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(title);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save inserts the note and its embedding in one statement.
func (s *SQLiteStore) Save(ctx context.Context, title, content string, embedding []float32) (models.Note, error) {
	raw, err := vector.EncodeEmbedding(embedding)
	if err != nil {
		return models.Note{}, models.StorageError("encode embedding", err)
	}
	note := models.Note{Title: title, Content: content, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, embedding_json, created_at) VALUES (?, ?, ?, ?)`,
		title, content, raw, note.CreatedAt,
	)
	if err != nil {
		return models.Note{}, models.StorageError("save note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Note{}, models.StorageError("save note", err)
	}
	note.ID = id
	s.opts.logger.Debug("saved note", zap.Int64("note_id", id), zap.Int("dimensions", len(embedding)))
	return note, nil
}

// List returns all notes ordered by id.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at FROM notes ORDER BY id`)
	if err != nil {
		return nil, models.StorageError("list notes", err)
	}
	return scanNotes(rows)
}

// AllWithEmbeddings returns every note with a decodable embedding, ordered by id.
func (s *SQLiteStore) AllWithEmbeddings(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, embedding_json, created_at FROM notes ORDER BY id`)
	if err != nil {
		return nil, models.StorageError("load embeddings", err)
	}
	return scanEntries(rows, &s.opts)
}

// Exists reports whether a note with this exact title and content is stored.
func (s *SQLiteStore) Exists(ctx context.Context, title, content string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM notes WHERE title = ? AND content = ?`, title, content,
	).Scan(&n)
	if err != nil {
		return false, models.StorageError("find note", err)
	}
	return n > 0, nil
}

// Delete removes the note with id. Unknown ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return models.StorageError(fmt.Sprintf("delete note %d", id), err)
	}
	n, _ := res.RowsAffected()
	s.opts.logger.Debug("deleted note", zap.Int64("note_id", id), zap.Int64("rows", n))
	return nil
}

// Count returns the number of stored notes.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, models.StorageError("count notes", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
