package core

// Attachment is one file attached to an inbound message, as declared by the transport.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
}

// Inbound is a message arriving from a transport channel.
type Inbound struct {
	AuthorID    string
	AuthorName  string
	Owner       bool // privileged/owner identity
	Text        string
	Attachments []Attachment
	Channel     string // channel name for reply routing ("console", "discord", ...)
	ChannelID   string
	CategoryID  string // optional category grouping of the channel
	ReplyToID   string
}

// HistoryEntry is one prior turn in short-term history.
type HistoryEntry struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// MemoryEntry is one long-term memory record.
type MemoryEntry struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Kind    string   `json:"kind,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// TurnPacket bundles everything one reasoning pass needs. It is built once
// per inbound message and discarded after the reply is sent.
type TurnPacket struct {
	Text            string         // user text with attachment/transcript text merged in
	History         []HistoryEntry // snapshot taken before this turn was appended
	Memories        []MemoryEntry
	Ranked          []MemoryEntry // relevance-ranked subset
	Archival        []string
	HumanFacts      []string
	PersonaFacts    []string
	Traits          []string
	CategoryPrompt  string
	VoiceNoteCount  int    // voice notes transcribed this turn
	VoiceTarget     string // where a voice reply would go, when known
	AuthorID        string
	AuthorName      string
	Owner           bool
	ToolResultsText string // set only on the follow-up pass
}

// ToolCall is a single structured action parsed out of model output.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of dispatching one ToolCall.
// Success=false always carries a non-empty Error.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Result     string `json:"result"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// ParamSchema is the JSON-schema-shaped parameter description from a manifest.
type ParamSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// ToolDefinition is one loaded tool manifest. ExecutablePath is empty for
// built-in-only tools.
type ToolDefinition struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Parameters     ParamSchema `json:"parameters"`
	ExecutablePath string      `json:"-"`
	Idempotent     bool        `json:"idempotent,omitempty"` // safe to retry with identical args
}

// External reports whether the tool runs as an isolated child process.
func (d ToolDefinition) External() bool { return d.ExecutablePath != "" }

// CategoryPromptConfig is a category-scoped prompt modification.
type CategoryPromptConfig struct {
	Enabled     bool
	Text        string
	DisplayName string
}
