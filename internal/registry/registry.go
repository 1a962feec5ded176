package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/emberbot/emberbot/internal/core"
)

// manifest mirrors the on-disk descriptor file.
type manifest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  *core.ParamSchema `json:"parameters"`
	Idempotent  bool             `json:"idempotent"`
}

// Registry loads tool manifests from a directory. Load never fails: per-file
// problems become diagnostics and the file is skipped. Reload rebuilds the
// whole map from scratch so removed tools disappear.
type Registry struct {
	dir string

	mu    sync.RWMutex
	tools map[string]core.ToolDefinition
	diags []string
}

// New creates a registry over the given manifest directory. Call Load before use.
func New(dir string) *Registry {
	return &Registry{dir: dir, tools: make(map[string]core.ToolDefinition)}
}

// Load scans the manifest directory and rebuilds the tool map and the
// diagnostics list wholesale.
func (r *Registry) Load() {
	tools := make(map[string]core.ToolDefinition)
	var diags []string

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		diags = append(diags, fmt.Sprintf("manifest dir %s: %v", r.dir, err))
		r.swap(tools, diags)
		return
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, fmt.Sprintf("%s: read failed: %v", e.Name(), err))
			continue
		}
		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			diags = append(diags, fmt.Sprintf("%s: invalid JSON: %v", e.Name(), err))
			continue
		}
		if m.Name == "" {
			diags = append(diags, fmt.Sprintf("%s: missing tool name", e.Name()))
			continue
		}
		if m.Description == "" {
			diags = append(diags, fmt.Sprintf("%s: missing description", m.Name))
		}
		def := core.ToolDefinition{
			Name:        m.Name,
			Description: m.Description,
			Idempotent:  m.Idempotent,
		}
		if m.Parameters == nil || m.Parameters.Type == "" {
			diags = append(diags, fmt.Sprintf("%s: missing or invalid parameter schema", m.Name))
			def.Parameters = core.ParamSchema{Type: "object"}
		} else {
			def.Parameters = *m.Parameters
		}
		// Sibling executable, name-matched to the descriptor. Missing means
		// built-in-only: still loaded, but flagged.
		execPath := filepath.Join(r.dir, m.Name)
		if info, err := os.Stat(execPath); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			def.ExecutablePath = execPath
		} else {
			diags = append(diags, fmt.Sprintf("%s: no executable at %s (built-in-only)", m.Name, execPath))
		}
		tools[def.Name] = def
	}

	r.swap(tools, diags)
	log.Printf("[REGISTRY] Loaded %d tools from %s (%d diagnostics)", len(tools), r.dir, len(diags))
}

// Reload clears and rebuilds the registry; stale tools disappear.
func (r *Registry) Reload() { r.Load() }

func (r *Registry) swap(tools map[string]core.ToolDefinition, diags []string) {
	r.mu.Lock()
	r.tools = tools
	r.diags = diags
	r.mu.Unlock()
}

// Get returns the definition for name, if loaded.
func (r *Registry) Get(name string) (core.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// All returns every loaded definition, sorted by name, for prompt rendering.
func (r *Registry) All() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ToolDefinition, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Diagnostics returns a copy of the warnings from the last Load.
func (r *Registry) Diagnostics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.diags))
	copy(out, r.diags)
	return out
}
