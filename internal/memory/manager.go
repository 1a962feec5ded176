package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/store"
)

// HistoryLimit is how many short-term turns a history snapshot carries.
const HistoryLimit = 30

// userState is the lazily loaded per-user view.
type userState struct {
	traits   []string
	memories []core.MemoryEntry
}

// Manager implements core.Memory over the SQLite store with optional
// embedding-based relevance ranking. Per-user state is LRU-cached; first
// loads for the same user are serialized with a keyed mutex.
type Manager struct {
	DB       *store.DB
	Embedder core.Embedder // nil: recall degrades to recency ordering
	Verbose  bool

	cache *lru.Cache[string, *userState]

	mu    sync.Mutex
	loads map[string]*sync.Mutex

	distillMu sync.Mutex
	distiller *Distiller
}

// NewManager creates a Manager over db.
func NewManager(db *store.DB, embedder core.Embedder, verbose bool) *Manager {
	cache, _ := lru.New[string, *userState](128)
	return &Manager{
		DB:       db,
		Embedder: embedder,
		Verbose:  verbose,
		cache:    cache,
		loads:    make(map[string]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loads[userID]
	if !ok {
		l = &sync.Mutex{}
		m.loads[userID] = l
	}
	return l
}

// LoadPerUserState warms the per-user cache. Concurrent first accesses for
// the same user wait on the keyed lock instead of double-loading.
func (m *Manager) LoadPerUserState(ctx context.Context, userID string) error {
	if _, ok := m.cache.Get(userID); ok {
		return nil
	}
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	if _, ok := m.cache.Get(userID); ok {
		return nil
	}
	if err := m.DB.GetOrCreateUser(ctx, userID, ""); err != nil {
		return fmt.Errorf("resolve user %s: %w", userID, err)
	}
	st := &userState{}
	traits, err := m.DB.FactsByKind(ctx, userID, "trait", 0)
	if err != nil {
		return fmt.Errorf("load traits: %w", err)
	}
	for _, t := range traits {
		st.traits = append(st.traits, t.Content)
	}
	rows, err := m.DB.MemoriesForUser(ctx, userID, 0)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}
	for _, r := range rows {
		st.memories = append(st.memories, core.MemoryEntry{ID: r.ID, Content: r.Content, Kind: r.Kind, Tags: r.Tags})
	}
	m.cache.Add(userID, st)
	if m.Verbose {
		log.Printf("[MEMORY] Loaded state for %s: %d traits, %d memories", userID, len(st.traits), len(st.memories))
	}
	return nil
}

// ShortTermHistory returns the recent conversation turns, oldest first.
func (m *Manager) ShortTermHistory(ctx context.Context) ([]core.HistoryEntry, error) {
	rows, err := m.DB.RecentMessages(ctx, HistoryLimit)
	if err != nil {
		return nil, err
	}
	out := make([]core.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.HistoryEntry{Role: r.Role, Text: r.Content})
	}
	return out, nil
}

// AppendShortTerm appends one turn to shared history.
func (m *Manager) AppendShortTerm(ctx context.Context, role, text string) error {
	_, err := m.DB.InsertMessage(ctx, role, text, "", "")
	return err
}

// LongTermMemories returns the user's long-term entries (cached view).
func (m *Manager) LongTermMemories(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	if err := m.LoadPerUserState(ctx, userID); err != nil {
		return nil, err
	}
	st, _ := m.cache.Get(userID)
	if st == nil {
		return nil, nil
	}
	return st.memories, nil
}

// Traits returns the persona traits recorded for the user.
func (m *Manager) Traits(ctx context.Context, userID string) ([]string, error) {
	if err := m.LoadPerUserState(ctx, userID); err != nil {
		return nil, err
	}
	st, _ := m.cache.Get(userID)
	if st == nil {
		return nil, nil
	}
	return st.traits, nil
}

// RecallRelevant returns the limit memories most relevant to text. Without
// an embedder it returns the most recent ones.
func (m *Manager) RecallRelevant(ctx context.Context, userID, text string, limit int) ([]core.MemoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	// Empty query means "fetch unconditionally" (boot refresh).
	if m.Embedder == nil || strings.TrimSpace(text) == "" {
		rows, err := m.DB.MemoriesForUser(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return toEntries(rows), nil
	}
	query, err := m.Embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("[MEMORY] Embed failed, falling back to recency: %v", err)
		rows, rerr := m.DB.MemoriesForUser(ctx, userID, limit)
		if rerr != nil {
			return nil, rerr
		}
		return toEntries(rows), nil
	}
	rows, err := m.DB.AllMemoriesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ranked []store.MemoryRow
	for _, r := range rows {
		if len(r.Embedding) == 0 {
			continue
		}
		r.Score = CosineSimilarity(query, r.Embedding)
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if m.Verbose {
		log.Printf("[MEMORY] Recall for %s: %d ranked entries", userID, len(ranked))
	}
	return toEntries(ranked), nil
}

// AddManualEntry persists a new memory entry and invalidates the cached view.
func (m *Manager) AddManualEntry(ctx context.Context, userID, summary, kind string, tags []string) (core.MemoryEntry, error) {
	if kind == "" {
		kind = "long_term"
	}
	entry := core.MemoryEntry{ID: uuid.NewString(), Content: summary, Kind: kind, Tags: tags}
	var emb []float32
	if m.Embedder != nil {
		if v, err := m.Embedder.Embed(ctx, summary); err == nil {
			emb = v
		}
	}
	if err := m.DB.InsertMemory(ctx, entry.ID, userID, summary, kind, tags, emb); err != nil {
		return core.MemoryEntry{}, err
	}
	m.cache.Remove(userID)
	return entry, nil
}

// searchFacts ranks facts of one kind against text. skipRelevance returns
// the most recent entries unconditionally.
func (m *Manager) searchFacts(ctx context.Context, kind, text string, limit int, skipRelevance bool) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	if skipRelevance || m.Embedder == nil {
		rows, err := m.DB.FactsByKind(ctx, "", kind, limit)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Content)
		}
		return out, nil
	}
	query, err := m.Embedder.Embed(ctx, text)
	if err != nil {
		rows, rerr := m.DB.FactsByKind(ctx, "", kind, limit)
		if rerr != nil {
			return nil, rerr
		}
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Content)
		}
		return out, nil
	}
	rows, err := m.DB.FactsByKind(ctx, "", kind, 0)
	if err != nil {
		return nil, err
	}
	var ranked []store.FactRow
	for _, r := range rows {
		if len(r.Embedding) == 0 {
			continue
		}
		r.Score = CosineSimilarity(query, r.Embedding)
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Content)
	}
	return out, nil
}

// SearchArchival returns archival snippets relevant to text.
func (m *Manager) SearchArchival(ctx context.Context, text string, limit int) ([]string, error) {
	return m.searchFacts(ctx, "archival", text, limit, false)
}

// SearchHumanFacts returns facts about the counterpart.
func (m *Manager) SearchHumanFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error) {
	return m.searchFacts(ctx, "human", text, limit, skipRelevance)
}

// SearchPersonaFacts returns facts about the assistant itself.
func (m *Manager) SearchPersonaFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error) {
	return m.searchFacts(ctx, "persona", text, limit, skipRelevance)
}

// CategoryPromptConfig returns the category-scoped prompt modification, or
// nil when none is configured.
func (m *Manager) CategoryPromptConfig(ctx context.Context, categoryID string) (*core.CategoryPromptConfig, error) {
	row, err := m.DB.CategoryPromptByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &core.CategoryPromptConfig{Enabled: row.Enabled, Text: row.PromptText, DisplayName: row.DisplayName}, nil
}

// PersistArchivalSummary stores an archival snippet.
func (m *Manager) PersistArchivalSummary(ctx context.Context, entry core.MemoryEntry) error {
	var emb []float32
	if m.Embedder != nil {
		if v, err := m.Embedder.Embed(ctx, entry.Content); err == nil {
			emb = v
		}
	}
	_, err := m.DB.InsertFact(ctx, "", "archival", entry.Content, emb)
	return err
}

func toEntries(rows []store.MemoryRow) []core.MemoryEntry {
	out := make([]core.MemoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.MemoryEntry{ID: r.ID, Content: r.Content, Kind: r.Kind, Tags: r.Tags})
	}
	return out
}

var _ core.Memory = (*Manager)(nil)
