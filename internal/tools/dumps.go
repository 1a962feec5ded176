package tools

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/emberbot/emberbot/internal/core"
)

// marshalArgs serializes a call's arguments for argv passing and dump files.
func marshalArgs(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// writeDump records one external execution attempt to disk for debugging.
// Failures here are logged, never surfaced.
func (e *Executor) writeDump(def core.ToolDefinition, call core.ToolCall, argsJSON string, attempt, exitCode int, signal, stdout, stderr string) {
	dir := e.DumpDir
	if dir == "" {
		dir = "dumps"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[TOOLS] Dump dir: %v", err)
		return
	}
	name := fmt.Sprintf("%s-%s-attempt%d-%s.log",
		call.Name,
		time.Now().UTC().Format("20060102T150405"),
		attempt,
		uuid.NewString()[:8],
	)
	body := fmt.Sprintf(
		"tool: %s\nexecutable: %s\nattempt: %d\nargs: %s\nexit_code: %d\nsignal: %s\n\n--- stdout ---\n%s\n\n--- stderr ---\n%s\n",
		call.Name, def.ExecutablePath, attempt, argsJSON, exitCode, signal, stdout, stderr,
	)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		log.Printf("[TOOLS] Dump write: %v", err)
	}
}
