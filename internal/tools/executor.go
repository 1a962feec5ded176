// Package tools dispatches extracted tool calls: validation gates first,
// then routing to an in-process handler or an isolated child process.
// Execute never panics and never returns an error to its caller; every
// failure becomes a ToolResult with Success=false.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/registry"
	"github.com/emberbot/emberbot/internal/tools/builtin"
)

// DefaultTimeout is the hard wall-clock limit for one external execution.
const DefaultTimeout = 2 * time.Minute

// memoryPrefixes are tool-name prefixes that must carry a string "reason"
// argument before anything executes.
var memoryPrefixes = []string{"archival_memory", "core_memory", "memory"}

// intentRequired is the fixed set of high-impact tools that must carry a
// string "intent" argument. The voice tool is deliberately absent: there
// intent is advisory only.
var intentRequired = map[string]bool{
	"send_heartbeat":  true,
	"music_control":   true,
	"create_playlist": true,
}

// builtinAllowList names tools that are always handled in-process even when
// a manifest declares an external executable. These need host-process
// capabilities (e.g. the transport layer) and must never be shelled out.
var builtinAllowList = map[string]bool{
	"send_voice_message": true,
	"send_heartbeat":     true,
	"web_search":         true,
	"music_control":      true,
}

// Executor routes and runs tool calls.
type Executor struct {
	Registry *registry.Registry
	Builtins *builtin.Set
	Timeout  time.Duration

	// RetryEnabled allows exactly one extra attempt per failed external
	// execution, but only for tools whose manifest opts into idempotence.
	RetryEnabled bool

	// DebugDumps writes a timestamped dump file per external attempt.
	DebugDumps bool
	DumpDir    string

	Observers []core.Observer
}

// New creates an Executor with the default timeout.
func New(reg *registry.Registry, builtins *builtin.Set) *Executor {
	return &Executor{Registry: reg, Builtins: builtins, Timeout: DefaultTimeout}
}

func failure(call core.ToolCall, msg string) core.ToolResult {
	return core.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Success:    false,
		Error:      msg,
	}
}

func hasStringArg(call core.ToolCall, key string) bool {
	v, ok := call.Arguments[key].(string)
	return ok && strings.TrimSpace(v) != ""
}

func requiresReason(name string) bool {
	for _, p := range memoryPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Execute runs one call and reports the outcome. Validation gates run
// before any side effect; no process is ever spawned for a rejected call.
func (e *Executor) Execute(ctx context.Context, call core.ToolCall) (result core.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[TOOLS] Panic executing %s: %v", call.Name, r)
			result = failure(call, fmt.Sprintf("internal error executing %s", call.Name))
		}
		e.notifyObservers(call, result)
	}()

	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	// Required-field gates.
	if requiresReason(call.Name) && !hasStringArg(call, "reason") {
		return failure(call, fmt.Sprintf("%s requires a 'reason' argument explaining the memory operation", call.Name))
	}
	if intentRequired[call.Name] && !hasStringArg(call, "intent") {
		return failure(call, fmt.Sprintf("%s requires an 'intent' argument", call.Name))
	}
	if call.Name == "send_voice_message" && !hasStringArg(call, "intent") {
		log.Printf("[TOOLS] %s called without intent (advisory only)", call.Name)
	}

	// Unknown-tool gate: the name must match the registry before any side
	// effect occurs.
	def, ok := e.Registry.Get(call.Name)
	if !ok {
		return failure(call, fmt.Sprintf("unknown tool: %s", call.Name))
	}

	// Schema check against the manifest's declared required parameters.
	var missing []string
	for _, key := range def.Parameters.Required {
		if _, present := call.Arguments[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return failure(call, fmt.Sprintf("%s is missing required argument(s): %s", call.Name, strings.Join(missing, ", ")))
	}

	// Routing. Allow-listed tools stay in-process regardless of manifest.
	if builtinAllowList[call.Name] {
		if t, ok := e.Builtins.Get(call.Name); ok {
			return e.runBuiltin(ctx, t, call)
		}
		return failure(call, fmt.Sprintf("%s is built-in-only but no handler is registered", call.Name))
	}
	if def.External() {
		res := e.runExternal(ctx, def, call, 1)
		if !res.Success && e.RetryEnabled && def.Idempotent {
			log.Printf("[TOOLS] Retrying %s once (idempotent): %s", call.Name, res.Error)
			res = e.runExternal(ctx, def, call, 2)
		}
		return res
	}
	if t, ok := e.Builtins.Get(call.Name); ok {
		return e.runBuiltin(ctx, t, call)
	}
	return failure(call, fmt.Sprintf("%s has no executable and no built-in handler", call.Name))
}

// runBuiltin executes an in-process tool. A returned error or a result
// string with a leading "error" marker both normalize to failure.
func (e *Executor) runBuiltin(ctx context.Context, t builtin.Tool, call core.ToolCall) core.ToolResult {
	out, err := t.Execute(ctx, call.Arguments)
	if err != nil {
		return failure(call, err.Error())
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "error") {
		return failure(call, strings.TrimSpace(out))
	}
	return core.ToolResult{ToolCallID: call.ID, ToolName: call.Name, Result: out, Success: true}
}

// runExternal spawns the tool's executable with the JSON-serialized
// arguments as one literal argv element. No shell is ever involved.
func (e *Executor) runExternal(ctx context.Context, def core.ToolDefinition, call core.ToolCall, attempt int) core.ToolResult {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argsJSON := marshalArgs(call.Arguments)
	cmd := exec.CommandContext(ctx, def.ExecutablePath, argsJSON)
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout := outBuf.String()
	stderr := errBuf.String()

	exitCode := 0
	signal := ""
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				signal = ws.Signal().String()
			}
		} else {
			exitCode = -1
		}
	}

	if e.DebugDumps {
		e.writeDump(def, call, argsJSON, attempt, exitCode, signal, stdout, stderr)
	}

	// Stderr that isn't a warning is worth a log line, but not a failure.
	if s := strings.TrimSpace(stderr); s != "" && !strings.HasPrefix(strings.ToLower(s), "warning") {
		log.Printf("[TOOLS] %s stderr: %s", call.Name, s)
	}

	if ctx.Err() == context.DeadlineExceeded {
		return failure(call, fmt.Sprintf("%s timed out after %s and was terminated", call.Name, timeout))
	}
	if runErr != nil {
		msg := fmt.Sprintf("%s exited with code %d", call.Name, exitCode)
		if signal != "" {
			msg = fmt.Sprintf("%s terminated by signal %s (exit code %d)", call.Name, signal, exitCode)
		}
		return failure(call, msg)
	}
	return core.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     strings.TrimSpace(stdout),
		Success:    true,
	}
}

// notifyObservers runs the hook list in order. One observer's failure never
// reaches the turn or the remaining observers.
func (e *Executor) notifyObservers(call core.ToolCall, result core.ToolResult) {
	for _, obs := range e.Observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[TOOLS] Observer panic after %s: %v", call.Name, r)
				}
			}()
			obs.AfterExecute(call, result)
		}()
	}
}

var _ core.ToolExecutor = (*Executor)(nil)
