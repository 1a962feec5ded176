package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/emberbot/emberbot/internal/core"
)

// distillThreshold is the short-term turn count above which a distillation
// pass condenses the oldest span into a long-term entry.
const distillThreshold = 200

// distillSpan is how many of the oldest turns one pass summarizes.
const distillSpan = 60

// Distiller is the optional summarization capability; when nil,
// MaybeDistill is a no-op.
type Distiller struct {
	Client core.ReasoningClient
}

// SetDistiller attaches a summarizer used by MaybeDistill.
func (m *Manager) SetDistiller(d *Distiller) {
	m.distillMu.Lock()
	m.distiller = d
	m.distillMu.Unlock()
}

// MaybeDistill condenses old short-term history into long-term entries when
// the history has grown past the threshold. Best-effort: callers run it in
// the background and only log failures.
func (m *Manager) MaybeDistill(ctx context.Context, userID string) ([]core.MemoryEntry, error) {
	m.distillMu.Lock()
	d := m.distiller
	m.distillMu.Unlock()
	if d == nil || d.Client == nil {
		return nil, nil
	}
	n, err := m.DB.CountMessages(ctx)
	if err != nil {
		return nil, err
	}
	if n < distillThreshold {
		return nil, nil
	}
	rows, err := m.DB.RecentMessages(ctx, n)
	if err != nil {
		return nil, err
	}
	span := rows
	if len(span) > distillSpan {
		span = span[:distillSpan]
	}
	var b strings.Builder
	for _, r := range span {
		fmt.Fprintf(&b, "%s: %s\n", r.Role, r.Content)
	}
	summary, err := d.Client.Generate(ctx, core.GenerateRequest{
		SystemPrompt: "Condense the following conversation span into a short third-person memory note. Keep names, decisions and standing facts; drop filler.",
		Messages:     []core.HistoryEntry{{Role: "user", Text: b.String()}},
		Temperature:  0.2,
		MaxTokens:    300,
	})
	if err != nil {
		return nil, fmt.Errorf("distill summarize: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, nil
	}
	entry, err := m.AddManualEntry(ctx, userID, summary, "distilled", nil)
	if err != nil {
		return nil, err
	}
	log.Printf("[MEMORY] Distilled %d turns into entry %s", len(span), entry.ID)
	return []core.MemoryEntry{entry}, nil
}
