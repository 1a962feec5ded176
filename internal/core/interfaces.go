package core

import (
	"context"
)

// GenerateRequest is one call to the reasoning collaborator.
type GenerateRequest struct {
	SystemPrompt string
	Messages     []HistoryEntry
	Temperature  float64
	MaxTokens    int
}

// ReasoningClient abstracts the model capability (one call in, text out).
type ReasoningClient interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Transcriber abstracts the audio transcription collaborator. Failure is
// non-fatal to the turn.
type Transcriber interface {
	Transcribe(ctx context.Context, url, filename, contentType string) (string, error)
}

// Embedder produces an embedding vector for relevance ranking.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ToolExecutor dispatches one tool call. It never panics and never returns
// an error: every failure is folded into the ToolResult.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) ToolResult
}

// Observer is notified after every tool execution, success or failure.
// An observer's own failure must never abort the turn or other observers.
type Observer interface {
	AfterExecute(call ToolCall, result ToolResult)
}

// Memory is the long-term memory collaborator. Persistence, embedding and
// ranking internals live behind this contract.
type Memory interface {
	LoadPerUserState(ctx context.Context, userID string) error
	ShortTermHistory(ctx context.Context) ([]HistoryEntry, error)
	AppendShortTerm(ctx context.Context, role, text string) error
	LongTermMemories(ctx context.Context, userID string) ([]MemoryEntry, error)
	Traits(ctx context.Context, userID string) ([]string, error)
	RecallRelevant(ctx context.Context, userID, text string, limit int) ([]MemoryEntry, error)
	AddManualEntry(ctx context.Context, userID, summary, kind string, tags []string) (MemoryEntry, error)
	MaybeDistill(ctx context.Context, userID string) ([]MemoryEntry, error)
	SearchArchival(ctx context.Context, text string, limit int) ([]string, error)
	SearchHumanFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error)
	SearchPersonaFacts(ctx context.Context, text string, limit int, skipRelevance bool) ([]string, error)
	CategoryPromptConfig(ctx context.Context, categoryID string) (*CategoryPromptConfig, error)
	PersistArchivalSummary(ctx context.Context, entry MemoryEntry) error
}
