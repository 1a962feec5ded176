// Package agent runs the turn pipeline: assemble context, reason, extract
// tool calls, execute them in order, finalize the reply.
package agent

import (
	"context"
	"log"

	"github.com/emberbot/emberbot/internal/assembler"
	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/extract"
	"github.com/emberbot/emberbot/internal/finalize"
	"github.com/emberbot/emberbot/internal/reason"
)

// Agent wires the per-turn stages together. It is safe for concurrent use;
// each call to HandleMessage is one independent turn.
type Agent struct {
	Assembler *assembler.Assembler
	Engine    *reason.Engine
	Executor  core.ToolExecutor
	Finalizer *finalize.Finalizer
	Memory    core.Memory
}

// New creates an Agent.
func New(asm *assembler.Assembler, eng *reason.Engine, exec core.ToolExecutor, fin *finalize.Finalizer, mem core.Memory) *Agent {
	return &Agent{Assembler: asm, Engine: eng, Executor: exec, Finalizer: fin, Memory: mem}
}

// HandleMessage processes one inbound message end to end and returns the
// reply text. An empty reply means nothing should be sent.
func (a *Agent) HandleMessage(ctx context.Context, msg core.Inbound) (string, error) {
	packet, notice, err := a.Assembler.Assemble(ctx, msg)
	if err != nil {
		log.Printf("[AGENT] Assemble failed for %s: %v", msg.AuthorID, err)
		return reason.FallbackReply, nil
	}
	if notice != "" {
		return notice, nil
	}

	// The user's side of the exchange goes into history now; the snapshot
	// inside the packet was taken before this append.
	if err := a.Memory.AppendShortTerm(ctx, "user", packet.Text); err != nil {
		log.Printf("[AGENT] History append: %v", err)
	}

	first := a.Engine.Think(ctx, packet)

	calls := extract.Extract(first)
	results := make([]core.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, a.Executor.Execute(ctx, call))
	}

	return a.Finalizer.Finalize(ctx, packet, first, results), nil
}
