// Package assembler gathers everything one turn needs before the reasoning
// engine runs: attachment text, voice-note transcripts, tiered memory
// recall, and category-scoped prompt modifications.
package assembler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emberbot/emberbot/internal/core"
)

// EmptyContentNotice is returned instead of invoking the reasoning engine
// when attachments were present but produced no usable text.
const EmptyContentNotice = "I couldn't read anything from that message — the attachments were either unsupported, too large, or failed to download. Could you paste the text directly?"

// recall limits per tier. The boot tier runs exactly once per process and
// bypasses relevance filtering so identity and context survive a restart.
type tier struct {
	ranked, archival, human, persona int
}

var (
	bootTier   = tier{ranked: 25, archival: 20, human: 15, persona: 15}
	normalTier = tier{ranked: 8, archival: 5, human: 3, persona: 3}
)

// Assembler builds a TurnPacket from an inbound message.
type Assembler struct {
	Memory      core.Memory
	Transcriber core.Transcriber
	Boot        *BootState
	HTTP        *http.Client
	MaxAudio    int
	Verbose     bool

	warnMu   sync.Mutex
	warnOnce map[string]bool
}

// New creates an Assembler. boot carries the process-wide boot refresh state.
func New(mem core.Memory, tr core.Transcriber, boot *BootState, maxAudio int, verbose bool) *Assembler {
	return &Assembler{
		Memory:      mem,
		Transcriber: tr,
		Boot:        boot,
		MaxAudio:    maxAudio,
		Verbose:     verbose,
		warnOnce:    make(map[string]bool),
	}
}

func (a *Assembler) httpClient() *http.Client {
	if a.HTTP != nil {
		return a.HTTP
	}
	return &http.Client{Timeout: 20 * time.Second}
}

// warnCategoryOnce logs a category lookup failure once per category so a
// broken row doesn't spam every turn.
func (a *Assembler) warnCategoryOnce(categoryID string, err error) {
	a.warnMu.Lock()
	defer a.warnMu.Unlock()
	if a.warnOnce[categoryID] {
		return
	}
	a.warnOnce[categoryID] = true
	log.Printf("[ASSEMBLER] Category prompt lookup failed for %s: %v", categoryID, err)
}

// Assemble builds the TurnPacket for msg. When attachments exist but no
// usable text could be produced, it returns a non-empty notice and a nil
// packet: the turn is short-circuited without a reasoning call. The history
// snapshot is taken strictly before the current turn is appended.
func (a *Assembler) Assemble(ctx context.Context, msg core.Inbound) (*core.TurnPacket, string, error) {
	attachText, skipped := a.collectAttachmentText(ctx, msg.Attachments)
	for _, s := range skipped {
		log.Printf("[ASSEMBLER] Skipped attachment: %s", s)
	}
	transcripts, voiceCount := a.collectTranscripts(ctx, msg.Attachments, a.MaxAudio)

	merged := strings.TrimSpace(msg.Text + attachText + transcripts)
	if merged == "" && len(msg.Attachments) > 0 {
		return nil, EmptyContentNotice, nil
	}

	history, err := a.Memory.ShortTermHistory(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("history snapshot: %w", err)
	}

	packet := &core.TurnPacket{
		Text:           merged,
		History:        history,
		AuthorID:       msg.AuthorID,
		AuthorName:     msg.AuthorName,
		Owner:          msg.Owner,
		VoiceNoteCount: voiceCount,
		VoiceTarget:    msg.Channel + ":" + msg.ChannelID,
	}

	if err := a.Memory.LoadPerUserState(ctx, msg.AuthorID); err != nil {
		log.Printf("[ASSEMBLER] Per-user state load failed for %s: %v", msg.AuthorID, err)
	}
	if mems, err := a.Memory.LongTermMemories(ctx, msg.AuthorID); err == nil {
		packet.Memories = mems
	}
	if traits, err := a.Memory.Traits(ctx, msg.AuthorID); err == nil {
		packet.Traits = traits
	}

	boot := a.Boot.BeginBoot()
	t := normalTier
	if boot {
		t = bootTier
		log.Printf("[ASSEMBLER] Boot refresh: full-tier recall with relevance bypass")
	}
	a.recallFanOut(ctx, packet, msg.AuthorID, merged, t, boot)

	if boot {
		a.synthesizeBootSummary(ctx, msg.AuthorID, packet)
		a.Boot.MarkEstablished()
	}

	if msg.CategoryID != "" {
		cfg, err := a.Memory.CategoryPromptConfig(ctx, msg.CategoryID)
		if err != nil {
			a.warnCategoryOnce(msg.CategoryID, err)
		} else if cfg != nil && cfg.Enabled {
			packet.CategoryPrompt = cfg.Text
		}
	}

	return packet, "", nil
}

// recallFanOut runs the four memory lookups as independent goroutines.
// Individual failures degrade to empty sections, never abort the turn.
func (a *Assembler) recallFanOut(ctx context.Context, packet *core.TurnPacket, userID, text string, t tier, bypassRelevance bool) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		if bypassRelevance {
			// Boot turn: unconditional fetch, newest first.
			packet.Ranked, err = a.Memory.RecallRelevant(ctx, userID, "", t.ranked)
		} else {
			packet.Ranked, err = a.Memory.RecallRelevant(ctx, userID, text, t.ranked)
		}
		if err != nil {
			log.Printf("[ASSEMBLER] Ranked recall failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		res, err := a.Memory.SearchArchival(ctx, text, t.archival)
		if err != nil {
			log.Printf("[ASSEMBLER] Archival recall failed: %v", err)
			return
		}
		packet.Archival = res
	}()
	go func() {
		defer wg.Done()
		res, err := a.Memory.SearchHumanFacts(ctx, text, t.human, bypassRelevance)
		if err != nil {
			log.Printf("[ASSEMBLER] Human-fact recall failed: %v", err)
			return
		}
		packet.HumanFacts = res
	}()
	go func() {
		defer wg.Done()
		res, err := a.Memory.SearchPersonaFacts(ctx, text, t.persona, bypassRelevance)
		if err != nil {
			log.Printf("[ASSEMBLER] Persona-fact recall failed: %v", err)
			return
		}
		packet.PersonaFacts = res
	}()
	wg.Wait()
	if a.Verbose {
		log.Printf("[ASSEMBLER] Recall: %d ranked, %d archival, %d human, %d persona",
			len(packet.Ranked), len(packet.Archival), len(packet.HumanFacts), len(packet.PersonaFacts))
	}
}

// synthesizeBootSummary persists a compact note about what the boot refresh
// loaded. Best-effort: a persist failure is logged and the turn continues.
func (a *Assembler) synthesizeBootSummary(ctx context.Context, userID string, packet *core.TurnPacket) {
	summary := fmt.Sprintf(
		"Boot refresh on %s: loaded %d ranked memories, %d archival snippets, %d human facts, %d persona facts for %s.",
		time.Now().UTC().Format(time.RFC3339),
		len(packet.Ranked), len(packet.Archival), len(packet.HumanFacts), len(packet.PersonaFacts),
		userID,
	)
	if _, err := a.Memory.AddManualEntry(ctx, userID, summary, "boot_summary", []string{"boot"}); err != nil {
		log.Printf("[ASSEMBLER] Boot summary persist failed: %v", err)
	}
}
