package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "Trip", "Paris in June", []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save(ctx, "Groceries", "eggs, milk", []float32{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID || first.ID == 0 {
		t.Fatalf("ids should be unique and non-zero: %d, %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	notes, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 || notes[0].Title != "Trip" || notes[1].Title != "Groceries" {
		t.Fatalf("List() = %+v, want insertion order", notes)
	}

	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	notes, _ = store.List(ctx)
	if len(notes) != 1 || notes[0].ID != second.ID {
		t.Errorf("after delete: %+v", notes)
	}

	// Deleting again, or an id that never existed, is a no-op.
	if err := store.Delete(ctx, first.ID); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
	if err := store.Delete(ctx, 9999); err != nil {
		t.Errorf("unknown delete: %v", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	store := newTestStore(t)
	notes, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("List() = %#v, want empty slice", notes)
	}
}

func TestSQLiteStore_AllWithEmbeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	want := []float32{0.25, -0.5, 0.125}
	if _, err := store.Save(ctx, "A", "alpha", want); err != nil {
		t.Fatal(err)
	}
	entries, err := store.AllWithEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	got := entries[0].Embedding
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("embedding = %v, want %v", got, want)
		}
	}
	if entries[0].Note.Title != "A" || entries[0].Note.Content != "alpha" {
		t.Errorf("note = %+v", entries[0].Note)
	}
}

func TestSQLiteStore_SkipsCorruptEmbedding(t *testing.T) {
	var (
		mu      sync.Mutex
		skipped []int64
	)
	store := newTestStore(t, WithIntegrityHandler(func(id int64, err error) {
		mu.Lock()
		defer mu.Unlock()
		if !models.IsKind(err, models.KindIntegrity) {
			t.Errorf("expected integrity error, got %v", err)
		}
		if !errors.Is(err, vector.ErrInvalidEmbedding) {
			t.Errorf("expected ErrInvalidEmbedding cause, got %v", err)
		}
		skipped = append(skipped, id)
	}))
	ctx := context.Background()

	good, err := store.Save(ctx, "good", "ok", []float32{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	res, err := store.db.Exec(`INSERT INTO notes (title, content, embedding_json) VALUES ('bad', 'x', 'not json')`)
	if err != nil {
		t.Fatal(err)
	}
	badID, _ := res.LastInsertId()

	entries, err := store.AllWithEmbeddings(ctx)
	if err != nil {
		t.Fatalf("one corrupt record must not fail retrieval: %v", err)
	}
	if len(entries) != 1 || entries[0].Note.ID != good.ID {
		t.Errorf("entries = %+v", entries)
	}
	if len(skipped) != 1 || skipped[0] != badID {
		t.Errorf("skipped = %v, want [%d]", skipped, badID)
	}

	// The corrupt note is still listed and can be deleted.
	notes, _ := store.List(ctx)
	if len(notes) != 2 {
		t.Errorf("List() = %d notes, want 2", len(notes))
	}
}

func TestSQLiteStore_SaveRejectsInvalidEmbedding(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(context.Background(), "t", "c", nil)
	if !models.IsKind(err, models.KindStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("nothing should be persisted, count = %d", n)
	}
}

func TestSQLiteStore_Exists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Save(ctx, "Trip", "Paris", []float32{1}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		title, content string
		want           bool
	}{
		{"Trip", "Paris", true},
		{"Trip", "Rome", false},
		{"trip", "Paris", false},
	}
	for _, tt := range tests {
		got, err := store.Exists(ctx, tt.title, tt.content)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Exists(%q, %q) = %v, want %v", tt.title, tt.content, got, tt.want)
		}
	}
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if _, err := store.Save(ctx, "m", "memory", []float32{1}); err != nil {
		t.Fatal(err)
	}
	entries, err := store.AllWithEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries", len(entries))
	}
}

func TestSQLiteStore_ConcurrentSaves(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Save(ctx, "n", "c", []float32{float32(i), 1}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if n, _ := store.Count(ctx); n != 20 {
		t.Errorf("Count() = %d, want 20", n)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "notes.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(context.Background(), "persist", "me", []float32{1, 1}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Path() != path {
		t.Errorf("Path() = %s, want %s", reopened.Path(), path)
	}
	notes, err := reopened.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "persist" {
		t.Errorf("notes after reopen = %+v", notes)
	}
}

func TestNew_Drivers(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, config.StorageConfig{Driver: config.DriverSQLite, DatabasePath: filepath.Join(t.TempDir(), "n.db")})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	if _, err := New(ctx, config.StorageConfig{Driver: "mysql"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSQLiteStore_PragmasOnEveryConnection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		if err != nil {
			t.Fatal(err)
		}
		conns = append(conns, conn)
	}
	for i, conn := range conns {
		var timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatal(err)
		}
		if timeout != 5000 {
			t.Errorf("conn %d: busy_timeout = %d, want 5000", i, timeout)
		}
		var mode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatal(err)
		}
		if mode != "wal" {
			t.Errorf("conn %d: journal_mode = %s, want wal", i, mode)
		}
	}
	for _, conn := range conns {
		_ = conn.Close()
	}
}
