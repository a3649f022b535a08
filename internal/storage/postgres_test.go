package storage

import (
	"context"
	"os"
	"testing"
)

// Set KIOKU_TEST_DATABASE_URL to run against a real PostgreSQL server.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("KIOKU_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("KIOKU_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.db.ExecContext(ctx, `TRUNCATE notes RESTART IDENTITY`); err != nil {
		t.Fatal(err)
	}

	a, err := store.Save(ctx, "A", "alpha", []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(ctx, "B", "beta", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, embedding_json) VALUES ('bad', 'x', '[]')`); err != nil {
		t.Fatal(err)
	}

	entries, err := store.AllWithEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Note.ID != a.ID {
		t.Errorf("entries = %+v", entries)
	}
	if ok, _ := store.Exists(ctx, "A", "alpha"); !ok {
		t.Error("Exists should find saved note")
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
