// Package extract parses structured tool calls out of free-form model
// output. It is deliberately tolerant: a malformed fragment skips only
// itself, never the whole scan.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/emberbot/emberbot/internal/core"
)

// Fenced code blocks tagged as JSON. (?s) so bodies may span lines.
var fencedJSONRx = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n?(.*?)```")

// Extract returns the tool calls found in text, in order of appearance.
// Fenced JSON blocks win; the raw-JSON fallback is only attempted when no
// fenced block yielded any call.
func Extract(text string) []core.ToolCall {
	var calls []core.ToolCall
	for _, m := range fencedJSONRx.FindAllStringSubmatch(text, -1) {
		parsed, ok := parseValue(m[1])
		if !ok {
			continue // malformed block; keep scanning
		}
		calls = append(calls, parsed...)
	}
	if len(calls) > 0 {
		return calls
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if parsed, ok := parseValue(trimmed); ok {
			return parsed
		}
	}
	return nil
}

// parseValue parses a JSON value that is either a single call object or an
// array of call objects.
func parseValue(s string) ([]core.ToolCall, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, false
	}
	if strings.HasPrefix(raw, "[") {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil, false
		}
		var out []core.ToolCall
		for _, obj := range arr {
			if c, ok := normalize(obj); ok {
				out = append(out, c)
			}
		}
		return out, len(out) > 0
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	c, ok := normalize(obj)
	if !ok {
		return nil, false
	}
	return []core.ToolCall{c}, true
}

// normalize reads a tool name from "tool" or "name" and an arguments map
// from "arguments", "parameters" or "args". The argument payload is always
// a map, never absent.
func normalize(obj map[string]any) (core.ToolCall, bool) {
	name := stringField(obj, "tool")
	if name == "" {
		name = stringField(obj, "name")
	}
	if name == "" {
		return core.ToolCall{}, false
	}
	args := mapField(obj, "arguments")
	if args == nil {
		args = mapField(obj, "parameters")
	}
	if args == nil {
		args = mapField(obj, "args")
	}
	if args == nil {
		args = map[string]any{}
	}
	id := stringField(obj, "id")
	if id == "" {
		id = uuid.NewString()
	}
	return core.ToolCall{ID: id, Name: name, Arguments: args}, true
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func mapField(obj map[string]any, key string) map[string]any {
	if v, ok := obj[key].(map[string]any); ok {
		return v
	}
	return nil
}
