package assembler

import (
	"context"
	"sync"
	"testing"

	"github.com/emberbot/emberbot/internal/core"
)

type recallCall struct {
	text  string
	limit int
	skip  bool
}

type fakeMemory struct {
	mu sync.Mutex

	history     []core.HistoryEntry
	ranked      []recallCall
	archival    []recallCall
	human       []recallCall
	persona     []recallCall
	manualKinds []string
	category    *core.CategoryPromptConfig
	categoryErr error
}

func (f *fakeMemory) LoadPerUserState(ctx context.Context, userID string) error { return nil }
func (f *fakeMemory) ShortTermHistory(ctx context.Context) ([]core.HistoryEntry, error) {
	return f.history, nil
}
func (f *fakeMemory) AppendShortTerm(ctx context.Context, role, text string) error { return nil }
func (f *fakeMemory) LongTermMemories(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	return nil, nil
}
func (f *fakeMemory) Traits(ctx context.Context, userID string) ([]string, error) {
	return []string{"curious"}, nil
}
func (f *fakeMemory) RecallRelevant(ctx context.Context, userID, text string, limit int) ([]core.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranked = append(f.ranked, recallCall{text: text, limit: limit})
	return []core.MemoryEntry{{Content: "a memory"}}, nil
}
func (f *fakeMemory) AddManualEntry(ctx context.Context, userID, summary, kind string, tags []string) (core.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualKinds = append(f.manualKinds, kind)
	return core.MemoryEntry{ID: "m1", Content: summary, Kind: kind}, nil
}
func (f *fakeMemory) MaybeDistill(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	return nil, nil
}
func (f *fakeMemory) SearchArchival(ctx context.Context, text string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archival = append(f.archival, recallCall{text: text, limit: limit})
	return nil, nil
}
func (f *fakeMemory) SearchHumanFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.human = append(f.human, recallCall{text: text, limit: limit, skip: skipRelevance})
	return nil, nil
}
func (f *fakeMemory) SearchPersonaFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persona = append(f.persona, recallCall{text: text, limit: limit, skip: skipRelevance})
	return nil, nil
}
func (f *fakeMemory) CategoryPromptConfig(ctx context.Context, categoryID string) (*core.CategoryPromptConfig, error) {
	return f.category, f.categoryErr
}
func (f *fakeMemory) PersistArchivalSummary(ctx context.Context, entry core.MemoryEntry) error {
	return nil
}

func TestAssembleEmptyAttachmentShortCircuit(t *testing.T) {
	mem := &fakeMemory{}
	a := New(mem, nil, NewBootState(), 3, false)

	msg := core.Inbound{
		AuthorID: "u1",
		Text:     "",
		Attachments: []core.Attachment{
			{Name: "photo.png", ContentType: "image/png", URL: "http://example.invalid/photo.png"},
		},
	}
	packet, notice, err := a.Assemble(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if packet != nil {
		t.Error("short-circuit should not build a packet")
	}
	if notice != EmptyContentNotice {
		t.Errorf("notice %q", notice)
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.ranked) != 0 {
		t.Error("recall ran despite short-circuit")
	}
}

func TestAssembleBootTierThenNormalTier(t *testing.T) {
	mem := &fakeMemory{}
	a := New(mem, nil, NewBootState(), 3, false)

	msg := core.Inbound{AuthorID: "u1", Text: "good morning", Channel: "console", ChannelID: "stdio"}
	if _, _, err := a.Assemble(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	mem.mu.Lock()
	if len(mem.ranked) != 1 || mem.ranked[0].limit != 25 {
		t.Errorf("boot ranked call %+v", mem.ranked)
	}
	if mem.ranked[0].text != "" {
		t.Errorf("boot recall should bypass relevance with an empty query, got %q", mem.ranked[0].text)
	}
	if len(mem.human) != 1 || !mem.human[0].skip || mem.human[0].limit != 15 {
		t.Errorf("boot human-fact call %+v", mem.human)
	}
	if len(mem.persona) != 1 || !mem.persona[0].skip || mem.persona[0].limit != 15 {
		t.Errorf("boot persona-fact call %+v", mem.persona)
	}
	if len(mem.archival) != 1 || mem.archival[0].limit != 20 {
		t.Errorf("boot archival call %+v", mem.archival)
	}
	if len(mem.manualKinds) != 1 || mem.manualKinds[0] != "boot_summary" {
		t.Errorf("boot summary not persisted: %v", mem.manualKinds)
	}
	mem.mu.Unlock()

	// Second turn uses the small tier with relevance on.
	if _, _, err := a.Assemble(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.ranked) != 2 || mem.ranked[1].limit != 8 {
		t.Errorf("normal ranked call %+v", mem.ranked)
	}
	if mem.ranked[1].text != "good morning" {
		t.Errorf("normal recall should use the message text, got %q", mem.ranked[1].text)
	}
	if len(mem.human) != 2 || mem.human[1].skip || mem.human[1].limit != 3 {
		t.Errorf("normal human-fact call %+v", mem.human)
	}
	if len(mem.manualKinds) != 1 {
		t.Errorf("boot summary persisted more than once: %v", mem.manualKinds)
	}
}

func TestAssembleCategoryPromptApplied(t *testing.T) {
	mem := &fakeMemory{category: &core.CategoryPromptConfig{Enabled: true, Text: "Keep it short."}}
	a := New(mem, nil, NewBootState(), 3, false)

	msg := core.Inbound{AuthorID: "u1", Text: "hi", CategoryID: "quiet"}
	packet, _, err := a.Assemble(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if packet.CategoryPrompt != "Keep it short." {
		t.Errorf("category prompt %q", packet.CategoryPrompt)
	}
}

func TestAssembleDisabledCategoryIgnored(t *testing.T) {
	mem := &fakeMemory{category: &core.CategoryPromptConfig{Enabled: false, Text: "Keep it short."}}
	a := New(mem, nil, NewBootState(), 3, false)

	msg := core.Inbound{AuthorID: "u1", Text: "hi", CategoryID: "quiet"}
	packet, _, err := a.Assemble(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if packet.CategoryPrompt != "" {
		t.Errorf("disabled category applied: %q", packet.CategoryPrompt)
	}
}

func TestAssembleHistorySnapshotPredatesTurn(t *testing.T) {
	mem := &fakeMemory{history: []core.HistoryEntry{{Role: "user", Text: "earlier"}}}
	a := New(mem, nil, NewBootState(), 3, false)

	packet, _, err := a.Assemble(context.Background(), core.Inbound{AuthorID: "u1", Text: "now"})
	if err != nil {
		t.Fatal(err)
	}
	if len(packet.History) != 1 || packet.History[0].Text != "earlier" {
		t.Errorf("history snapshot %+v", packet.History)
	}
	if packet.Text != "now" {
		t.Errorf("packet text %q", packet.Text)
	}
}
