// Package builtin holds tools that run inside the host process because they
// need capabilities a child process cannot have (the transport layer, the
// TTS session, shared service clients).
package builtin

import (
	"context"
)

// Tool is one in-process tool implementation. A result string starting with
// "error" (any case) is treated as a failure by the dispatcher.
type Tool interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Set is the collection of registered built-in tools.
type Set struct {
	tools map[string]Tool
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous one with the same name.
func (s *Set) Register(t Tool) {
	s.tools[t.Name()] = t
}

// Get returns the tool with the given name.
func (s *Set) Get(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Names returns the registered tool names.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.tools))
	for n := range s.tools {
		out = append(out, n)
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
