package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/store"
)

// keywordEmbedder maps text onto two axes so ranking is deterministic.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := []float32{0.1, 0.1}
	if strings.Contains(text, "cat") {
		v = []float32{1, 0}
	} else if strings.Contains(text, "music") {
		v = []float32{0, 1}
	}
	return v, nil
}

func newTestManager(t *testing.T, embedder core.Embedder) *Manager {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(db, embedder, false)
}

func TestShortTermHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	if err := m.AppendShortTerm(ctx, "user", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendShortTerm(ctx, "assistant", "hi there"); err != nil {
		t.Fatal(err)
	}

	hist, err := m.ShortTermHistory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d entries", len(hist))
	}
	if hist[0].Role != "user" || hist[0].Text != "hello" {
		t.Errorf("oldest-first ordering violated: %+v", hist[0])
	}
	if hist[1].Role != "assistant" {
		t.Errorf("second entry %+v", hist[1])
	}
}

func TestAddManualEntryVisibleAfterCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	// Warm the cache before the write so the test exercises invalidation.
	if _, err := m.LongTermMemories(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	entry, err := m.AddManualEntry(ctx, "u1", "likes rainy mornings", "long_term", []string{"preference"})
	if err != nil {
		t.Fatal(err)
	}
	if entry.ID == "" {
		t.Error("entry ID not assigned")
	}

	mems, err := m.LongTermMemories(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mems) != 1 || mems[0].Content != "likes rainy mornings" {
		t.Errorf("got %+v", mems)
	}
}

func TestRecallRelevantRanksByEmbedding(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, keywordEmbedder{})

	for _, content := range []string{
		"has a cat named Juniper",
		"plays music every evening",
		"another note about the cat",
	} {
		if _, err := m.AddManualEntry(ctx, "u1", content, "long_term", nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.RecallRelevant(ctx, "u1", "tell me about the cat", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	for _, e := range got {
		if !strings.Contains(e.Content, "cat") {
			t.Errorf("irrelevant entry ranked into top results: %q", e.Content)
		}
	}
}

func TestRecallRelevantEmptyQueryBypassesRanking(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, keywordEmbedder{})

	if _, err := m.AddManualEntry(ctx, "u1", "plays music every evening", "long_term", nil); err != nil {
		t.Fatal(err)
	}

	got, err := m.RecallRelevant(ctx, "u1", "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("unconditional fetch returned %d entries", len(got))
	}
}

func TestSearchFactsSkipRelevance(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, keywordEmbedder{})

	if err := m.PersistArchivalSummary(ctx, core.MemoryEntry{Content: "summer trip summary"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DB.InsertFact(ctx, "", "human", "prefers tea over coffee", nil); err != nil {
		t.Fatal(err)
	}

	// Facts without embeddings are invisible to ranked search but must still
	// surface when relevance is bypassed.
	ranked, err := m.SearchHumanFacts(ctx, "beverages", 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 0 {
		t.Errorf("unembedded fact leaked into ranked search: %v", ranked)
	}

	all, err := m.SearchHumanFacts(ctx, "beverages", 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0] != "prefers tea over coffee" {
		t.Errorf("skip-relevance fetch got %v", all)
	}

	arch, err := m.SearchArchival(ctx, "summer trip", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(arch) != 1 {
		t.Errorf("archival search got %v", arch)
	}
}

func TestCategoryPromptConfigMissingIsNil(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	cfg, err := m.CategoryPromptConfig(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Errorf("missing category should be nil, got %+v", cfg)
	}

	if err := m.DB.UpsertCategoryPrompt(ctx, store.CategoryPrompt{
		CategoryID:  "quiet",
		Enabled:     true,
		DisplayName: "Quiet Hours",
		PromptText:  "Keep replies short.",
	}); err != nil {
		t.Fatal(err)
	}
	cfg, err = m.CategoryPromptConfig(ctx, "quiet")
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil || !cfg.Enabled || cfg.Text != "Keep replies short." {
		t.Errorf("got %+v", cfg)
	}
}
