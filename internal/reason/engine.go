// Package reason wraps the external model capability: it renders a
// TurnPacket into a system/messages pair, makes exactly one call, and
// sanitizes the raw reply. A model failure never escapes this package.
package reason

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/registry"
)

// FallbackReply is returned whenever the model call fails.
const FallbackReply = "Sorry — I lost my train of thought for a second there. Could you say that again?"

const (
	temperature = 0.85
	maxTokens   = 1024
)

// Engine is the reasoning-engine wrapper.
type Engine struct {
	Client   core.ReasoningClient
	Registry *registry.Registry
	BotName  string
}

// New creates an Engine.
func New(client core.ReasoningClient, reg *registry.Registry, botName string) *Engine {
	return &Engine{Client: client, Registry: reg, BotName: botName}
}

// Think runs one reasoning pass over the packet. It never fails: any model
// error is logged and replaced with the fixed fallback reply.
func (e *Engine) Think(ctx context.Context, p *core.TurnPacket) string {
	req := core.GenerateRequest{
		SystemPrompt: e.buildSystemPrompt(p),
		Messages:     e.buildMessages(p),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
	raw, err := e.Client.Generate(ctx, req)
	if err != nil {
		log.Printf("[REASON] Model call failed: %v", err)
		return FallbackReply
	}
	return Sanitize(raw, e.BotName, p.Owner)
}

func section(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n== %s ==\n", title)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
}

func (e *Engine) buildSystemPrompt(p *core.TurnPacket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a conversational companion. Reply naturally; never expose internal machinery or raw JSON to the user.\n", e.BotName)

	section(&b, "PERSONA", p.PersonaFacts)
	section(&b, "TRAITS", p.Traits)
	section(&b, "ABOUT THE USER", p.HumanFacts)
	section(&b, "ARCHIVAL MEMORY", p.Archival)

	var ranked []string
	for _, m := range p.Ranked {
		ranked = append(ranked, m.Content)
	}
	section(&b, "RELEVANT MEMORIES", ranked)

	if p.CategoryPrompt != "" {
		fmt.Fprintf(&b, "\n== CHANNEL CONTEXT ==\n%s\n", strings.TrimSpace(p.CategoryPrompt))
	}
	if p.VoiceNoteCount > 0 {
		fmt.Fprintf(&b, "\nThe user sent %d voice note(s) this turn; a voice reply to %s may suit the moment.\n", p.VoiceNoteCount, p.VoiceTarget)
	}

	e.renderToolCatalogue(&b)
	return b.String()
}

// renderToolCatalogue lists the available tools and the fenced-JSON call
// contract the extractor understands.
func (e *Engine) renderToolCatalogue(b *strings.Builder) {
	defs := e.Registry.All()
	if len(defs) == 0 {
		return
	}
	b.WriteString("\n== TOOLS ==\nTo act, emit a fenced code block tagged json containing {\"name\": \"<tool>\", \"arguments\": {...}}. Memory tools need a \"reason\" argument; high-impact tools need an \"intent\" argument.\n")
	for _, d := range defs {
		fmt.Fprintf(b, "- %s: %s", d.Name, d.Description)
		if len(d.Parameters.Required) > 0 {
			fmt.Fprintf(b, " (required: %s)", strings.Join(d.Parameters.Required, ", "))
		}
		b.WriteString("\n")
	}
}

func (e *Engine) buildMessages(p *core.TurnPacket) []core.HistoryEntry {
	msgs := make([]core.HistoryEntry, 0, len(p.History)+2)
	for _, h := range p.History {
		role := h.Role
		if role != "user" && role != "assistant" {
			continue
		}
		msgs = append(msgs, core.HistoryEntry{Role: role, Text: h.Text})
	}
	msgs = append(msgs, core.HistoryEntry{Role: "user", Text: p.Text})
	if p.ToolResultsText != "" {
		msgs = append(msgs, core.HistoryEntry{
			Role: "user",
			Text: "Tool results (not from the user — narrate the outcome for them):\n" + p.ToolResultsText,
		})
	}
	return msgs
}
