// Package finalize turns a first-pass reply plus tool outcomes into the
// text that actually reaches the user, and records the exchange in memory.
package finalize

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/reason"
)

// selfSufficient names tools whose successful execution satisfies the turn
// by itself. The text reply is suppressed so the user doesn't get a voice
// message narrated back at them in text.
var selfSufficient = map[string]bool{
	"send_voice_message": true,
}

// Finalizer produces the outgoing reply for one turn.
type Finalizer struct {
	Engine *reason.Engine
	Memory core.Memory
}

// New creates a Finalizer.
func New(engine *reason.Engine, mem core.Memory) *Finalizer {
	return &Finalizer{Engine: engine, Memory: mem}
}

// Finalize resolves the turn's reply. With no tool calls the first pass is
// the reply. With calls, either a self-sufficient tool succeeded and the
// reply is suppressed entirely, or the tool outcomes are fed back for a
// second reasoning pass. Whatever text is about to go out is stripped of
// tool-call artifacts first. An empty string means "send nothing".
func (f *Finalizer) Finalize(ctx context.Context, p *core.TurnPacket, firstReply string, results []core.ToolResult) string {
	if len(results) == 0 {
		// A malformed fenced block yields zero calls upstream but must
		// still never reach the user.
		return f.record(ctx, p, StripArtifacts(firstReply))
	}

	for _, r := range results {
		if r.Success && selfSufficient[r.ToolName] {
			f.recordInternal(ctx, p, "[sent a voice message instead of a text reply]")
			return ""
		}
	}

	p.ToolResultsText = formatResults(results)
	second := StripArtifacts(f.Engine.Think(ctx, p))
	if second == "" {
		// The second pass produced nothing usable. Salvage the first pass,
		// minus any tool-call blocks.
		second = StripArtifacts(firstReply)
	}
	if second == "" {
		second = reason.FallbackReply
	}
	return f.record(ctx, p, second)
}

// formatResults renders tool outcomes into the block appended to the second
// reasoning pass.
func formatResults(results []core.ToolResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "%s -> ok: %s\n", r.ToolName, strings.TrimSpace(r.Result))
		} else {
			fmt.Fprintf(&b, "%s -> failed: %s\n", r.ToolName, strings.TrimSpace(r.Error))
		}
	}
	return strings.TrimSpace(b.String())
}

// record appends the outgoing reply to short-term history and kicks off a
// distillation check in the background.
func (f *Finalizer) record(ctx context.Context, p *core.TurnPacket, reply string) string {
	if strings.TrimSpace(reply) == "" {
		return reply
	}
	if err := f.Memory.AppendShortTerm(ctx, "assistant", reply); err != nil {
		log.Printf("[FINALIZE] History append: %v", err)
	}
	go func() {
		if _, err := f.Memory.MaybeDistill(context.Background(), p.AuthorID); err != nil {
			log.Printf("[FINALIZE] Distill: %v", err)
		}
	}()
	return reply
}

// recordInternal notes a non-text outcome in history so later turns know
// the exchange was answered.
func (f *Finalizer) recordInternal(ctx context.Context, p *core.TurnPacket, note string) {
	if err := f.Memory.AppendShortTerm(ctx, "assistant", note); err != nil {
		log.Printf("[FINALIZE] History note: %v", err)
	}
	go func() {
		if _, err := f.Memory.MaybeDistill(context.Background(), p.AuthorID); err != nil {
			log.Printf("[FINALIZE] Distill: %v", err)
		}
	}()
}
