package search

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/provider"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/storage"
)

func newTestEngine(t *testing.T, p *provider.StaticProvider) (*Engine, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(store, p, p, ranking.NewRanker(nil)), store
}

func TestEngine_IngestEmbedsFullText(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{"Trip: Paris in June": {1, 0, 0}}, "ok")
	e, _ := newTestEngine(t, p)

	note, err := e.Ingest(context.Background(), &models.NoteInput{Title: "Trip", Content: "Paris in June"})
	require.NoError(t, err)
	assert.NotZero(t, note.ID)
	assert.Equal(t, []string{"Trip: Paris in June"}, p.Embedded())

	notes, err := e.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Paris in June", notes[0].Content)
}

func TestEngine_IngestEmbedFailurePersistsNothing(t *testing.T) {
	p := provider.NewStaticProvider(nil, "ok")
	p.FailEmbed(errors.New("connection refused"))
	e, store := newTestEngine(t, p)

	_, err := e.Ingest(context.Background(), &models.NoteInput{Title: "T", Content: "C"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindProvider))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_IngestRejectsEmptyNote(t *testing.T) {
	e, _ := newTestEngine(t, provider.NewStaticProvider(nil, "ok"))
	_, err := e.Ingest(context.Background(), &models.NoteInput{Title: " ", Content: "\n"})
	assert.ErrorIs(t, err, models.ErrEmptyNote)
}

// A question embedded to the same vector as a note ranks it first with score 1.0.
func TestEngine_RetrieveIdenticalVector(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{
		"Trip: Paris in June":    {1, 0, 0},
		"where did I go in June": {1, 0, 0},
	}, "ok")
	e, _ := newTestEngine(t, p)
	ctx := context.Background()

	_, err := e.Ingest(ctx, &models.NoteInput{Title: "Trip", Content: "Paris in June"})
	require.NoError(t, err)

	resp, err := e.Retrieve(ctx, &models.Question{Question: "where did I go in June"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Trip", resp.Results[0].Note.Title)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
}

// [0.9, 0.1] is closer to [1, 0] than to [0, 1].
func TestEngine_RetrieveOrdersBySimilarity(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{
		"A: first":  {1, 0},
		"B: second": {0, 1},
		"query":     {0.9, 0.1},
	}, "ok")
	e, _ := newTestEngine(t, p)
	ctx := context.Background()

	// Insert the less similar note first so ordering is not just insertion order.
	_, err := e.Ingest(ctx, &models.NoteInput{Title: "B", Content: "second"})
	require.NoError(t, err)
	_, err = e.Ingest(ctx, &models.NoteInput{Title: "A", Content: "first"})
	require.NoError(t, err)

	resp, err := e.Retrieve(ctx, &models.Question{Question: "query"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "A", resp.Results[0].Note.Title)
	assert.Equal(t, "B", resp.Results[1].Note.Title)
	assert.Equal(t, 1, resp.Results[0].Rank)
}

func TestEngine_DeleteUnknownID(t *testing.T) {
	e, _ := newTestEngine(t, provider.NewStaticProvider(nil, "ok"))
	assert.NoError(t, e.DeleteNote(context.Background(), 424242))
}

// An empty store still issues the completion request with an empty context.
func TestEngine_AnswerWithNoNotes(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{"anything?": {1, 0}}, NoInformation)
	e, _ := newTestEngine(t, p)

	ans, err := e.Answer(context.Background(), &models.Question{Question: "anything?"})
	require.NoError(t, err)
	assert.Equal(t, NoInformation, ans.Answer)
	assert.Empty(t, ans.Sources)
	assert.NotNil(t, ans.Sources)
	assert.NotEmpty(t, ans.OperationID)

	prompts := p.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, BuildPrompt("", "anything?"), prompts[0])
	assert.Contains(t, prompts[0], "\n\nContext:\n\n\nQuestion:\nanything?")
}

func TestEngine_AnswerPromptContainsRankedContext(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{
		"Trip: Paris in June":    {1, 0},
		"Food: Croissants":       {0.8, 0.2},
		"Taxes: due in April":    {0, 1},
		"where did I go in June": {1, 0},
	}, "You went to Paris.")
	e, _ := newTestEngine(t, p)
	ctx := context.Background()
	for _, in := range []models.NoteInput{
		{Title: "Taxes", Content: "due in April"},
		{Title: "Food", Content: "Croissants"},
		{Title: "Trip", Content: "Paris in June"},
	} {
		in := in
		_, err := e.Ingest(ctx, &in)
		require.NoError(t, err)
	}

	ans, err := e.Answer(ctx, &models.Question{Question: "where did I go in June"})
	require.NoError(t, err)
	assert.Equal(t, "You went to Paris.", ans.Answer)
	require.Len(t, ans.Sources, 3)
	assert.Equal(t, "Trip", ans.Sources[0].Title)
	assert.Equal(t, "Food", ans.Sources[1].Title)

	wantContext := "Title: Trip\n\nContent: Paris in June\n" +
		"\nTitle: Food\n\nContent: Croissants\n" +
		"\nTitle: Taxes\n\nContent: due in April\n"
	assert.Equal(t, BuildPrompt(wantContext, "where did I go in June"), p.Prompts()[0])
}

func TestEngine_AnswerKeepsQuestionVerbatim(t *testing.T) {
	question := "  where did I go\tin June?\n"
	p := provider.NewStaticProvider(map[string][]float32{question: {1, 0}}, "ok")
	e, _ := newTestEngine(t, p)

	ans, err := e.Answer(context.Background(), &models.Question{Question: question})
	require.NoError(t, err)
	assert.Equal(t, question, ans.Question)
	assert.Equal(t, []string{question}, p.Embedded())
	require.Len(t, p.Prompts(), 1)
	assert.True(t, strings.HasSuffix(p.Prompts()[0], "\n\nQuestion:\n"+question))
}

func TestEngine_AnswerRespectsTopK(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{"q": {1, 1}}, "ok")
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer store.Close()
	e := NewEngine(store, p, p, ranking.NewRanker(&ranking.RankingConfig{TopK: 2}))
	ctx := context.Background()
	for i, title := range []string{"a", "b", "c", "d"} {
		p.SetVector(title+": x", []float32{float32(i + 1), 1})
		_, err := e.Ingest(ctx, &models.NoteInput{Title: title, Content: "x"})
		require.NoError(t, err)
	}

	ans, err := e.Answer(ctx, &models.Question{Question: "q"})
	require.NoError(t, err)
	assert.Len(t, ans.Sources, 2)
	assert.Equal(t, 2, strings.Count(p.Prompts()[0], "Title: "))

	resp, err := e.Retrieve(ctx, &models.Question{Question: "q", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestEngine_AnswerFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("empty question", func(t *testing.T) {
		e, _ := newTestEngine(t, provider.NewStaticProvider(nil, "ok"))
		_, err := e.Answer(ctx, &models.Question{Question: "   "})
		assert.ErrorIs(t, err, models.ErrEmptyQuestion)
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		p := provider.NewStaticProvider(nil, "ok")
		p.FailEmbed(errors.New("timeout"))
		e, _ := newTestEngine(t, p)
		ans, err := e.Answer(ctx, &models.Question{Question: "q"})
		assert.Nil(t, ans)
		assert.True(t, models.IsKind(err, models.KindProvider))
		assert.Empty(t, p.Prompts(), "no completion after a failed embed")
	})

	t.Run("completion fails", func(t *testing.T) {
		p := provider.NewStaticProvider(map[string][]float32{"q": {1}}, "ok")
		p.FailComplete(errors.New("model crashed"))
		e, _ := newTestEngine(t, p)
		ans, err := e.Answer(ctx, &models.Question{Question: "q"})
		assert.Nil(t, ans)
		assert.True(t, models.IsKind(err, models.KindGeneration))
	})

	t.Run("empty completion", func(t *testing.T) {
		p := provider.NewStaticProvider(map[string][]float32{"q": {1}}, "")
		e, _ := newTestEngine(t, p)
		_, err := e.Answer(ctx, &models.Question{Question: "q"})
		assert.True(t, models.IsKind(err, models.KindGeneration))
	})
}

type plainCompleter struct{ out string }

func (c plainCompleter) Complete(context.Context, string) (string, error) {
	if c.out == "" {
		return "", errors.New("boom")
	}
	return c.out, nil
}

func TestEngine_ComposeAndAskTagsUnkindedErrors(t *testing.T) {
	p := provider.NewStaticProvider(nil, "ok")
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	e := NewEngine(store, p, plainCompleter{}, nil)
	_, err = e.ComposeAndAsk(context.Background(), "", "q")
	assert.True(t, models.IsKind(err, models.KindGeneration))

	e = NewEngine(store, p, plainCompleter{out: " raw\n"}, nil)
	got, err := e.ComposeAndAsk(context.Background(), "", "q")
	require.NoError(t, err)
	assert.Equal(t, " raw\n", got)
}

func TestEngine_MismatchedNoteExcluded(t *testing.T) {
	p := provider.NewStaticProvider(map[string][]float32{
		"Old: three dims": {1, 0, 0},
		"New: two dims":   {1, 0},
		"q":               {1, 0},
	}, "ok")
	e, _ := newTestEngine(t, p)
	ctx := context.Background()
	for _, in := range []models.NoteInput{{Title: "Old", Content: "three dims"}, {Title: "New", Content: "two dims"}} {
		in := in
		_, err := e.Ingest(ctx, &in)
		require.NoError(t, err)
	}
	resp, err := e.Retrieve(ctx, &models.Question{Question: "q"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "New", resp.Results[0].Note.Title)
}
