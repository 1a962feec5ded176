package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberbot/emberbot/internal/agent"
	"github.com/emberbot/emberbot/internal/assembler"
	"github.com/emberbot/emberbot/internal/config"
	"github.com/emberbot/emberbot/internal/core"
	"github.com/emberbot/emberbot/internal/embed"
	"github.com/emberbot/emberbot/internal/finalize"
	"github.com/emberbot/emberbot/internal/gateway"
	"github.com/emberbot/emberbot/internal/llm"
	"github.com/emberbot/emberbot/internal/memory"
	"github.com/emberbot/emberbot/internal/reason"
	"github.com/emberbot/emberbot/internal/registry"
	"github.com/emberbot/emberbot/internal/store"
	"github.com/emberbot/emberbot/internal/tools"
	"github.com/emberbot/emberbot/internal/tools/builtin"
	"github.com/emberbot/emberbot/internal/transcribe"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.New("")
	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		log.Fatalf("[MAIN] Config dir: %v", err)
	}

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("[MAIN] Store: %v", err)
	}
	defer db.Close()

	var embedder core.Embedder
	if cfg.EmbeddingServiceURL != "" {
		embedder = embed.NewClient(cfg.EmbeddingServiceURL, cfg.EmbeddingServiceAPIKey, 0)
	} else {
		log.Printf("[MAIN] No embedding service; recall degrades to recency ordering")
	}

	client := llm.NewClient(cfg.OpenRouterAPIKey, cfg.Model)

	mem := memory.NewManager(db, embedder, cfg.VerboseMemory)
	mem.SetDistiller(&memory.Distiller{Client: client})

	var transcriber core.Transcriber
	if cfg.TranscribeServiceURL != "" {
		transcriber = transcribe.NewClient(cfg.TranscribeServiceURL, "")
	}

	if err := os.MkdirAll(cfg.ToolSpecDir, 0o755); err != nil {
		log.Fatalf("[MAIN] Toolspec dir: %v", err)
	}
	reg := registry.New(cfg.ToolSpecDir)
	reg.Load()
	for _, d := range reg.Diagnostics() {
		log.Printf("[MAIN] Tool manifest: %s", d)
	}
	go func() {
		if err := reg.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[MAIN] Manifest watch: %v", err)
		}
	}()

	boot := assembler.NewBootState()
	asm := assembler.New(mem, transcriber, boot, cfg.MaxAudioAttachments, cfg.VerboseMemory)
	engine := reason.New(client, reg, cfg.BotName)

	executor := tools.New(reg, builtin.NewSet())
	executor.RetryEnabled = cfg.ToolRetry
	executor.DebugDumps = cfg.DebugToolDumps
	executor.DumpDir = cfg.DumpDir
	executor.Observers = []core.Observer{&toolLogObserver{}}

	fin := finalize.New(engine, mem)
	bot := agent.New(asm, engine, executor, fin, mem)

	gw := gateway.New(bot.HandleMessage)
	gw.Register(gateway.NewConsole(cfg.BotName, cfg.OwnerUserID))

	registerBuiltins(executor.Builtins, cfg, gw)

	log.Printf("[MAIN] %s starting (model=%s, toolspec=%s)", cfg.BotName, cfg.Model, cfg.ToolSpecDir)
	if err := gw.StartAll(ctx); err != nil {
		log.Fatalf("[MAIN] Gateway: %v", err)
	}
	log.Printf("[MAIN] Shutdown complete")
}

// registerBuiltins wires the in-process tools against their configured
// service endpoints. Tools without a configured backend still register;
// they fail per-call with a clear message instead of being silently absent.
func registerBuiltins(set *builtin.Set, cfg *config.Config, gw *gateway.Gateway) {
	var synth builtin.Synthesizer
	if cfg.TTSServiceURL != "" {
		synth = &builtin.HTTPTTS{URL: cfg.TTSServiceURL, APIKey: cfg.TTSAPIKey, VoiceID: cfg.TTSVoiceID}
	}
	set.Register(&builtin.VoiceMessage{TTS: synth, Deliverer: gw})
	set.Register(&builtin.WebSearch{URL: cfg.SearchServiceURL})
	set.Register(&builtin.Heartbeat{URL: cfg.HeartbeatWebhookURL})
	set.Register(&builtin.MusicControl{URL: cfg.MusicServiceURL})
}

// toolLogObserver is the default post-execution hook: one line per call.
type toolLogObserver struct{}

func (toolLogObserver) AfterExecute(call core.ToolCall, result core.ToolResult) {
	if result.Success {
		log.Printf("[TOOLS] %s ok (%d bytes)", call.Name, len(result.Result))
	} else {
		log.Printf("[TOOLS] %s failed: %s", call.Name, result.Error)
	}
}
