package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds runtime configuration. Secrets (API keys) are read from the
// environment or from the config dir at runtime; never committed.
type Config struct {
	// OpenRouterAPIKey is set from env OPENROUTER_API_KEY or from config file.
	OpenRouterAPIKey string `json:"open_router_api_key"`
	// Model is the model id passed to the reasoning API.
	Model string `json:"model"`
	// BotName is the assistant's display name (used for identity-prefix stripping).
	BotName string `json:"bot_name"`
	// OwnerUserID is the privileged/owner identity.
	OwnerUserID string `json:"owner_user_id"`

	// ConfigDir is where config.json and the DB live.
	ConfigDir string `json:"-"`
	// DBPath is the path to emberbot.db.
	DBPath string `json:"-"`
	// ToolSpecDir is where tool manifests and their sibling executables live.
	ToolSpecDir string `json:"-"`
	// DumpDir is where tool execution debug dumps are written.
	DumpDir string `json:"-"`

	// DebugToolDumps enables on-disk dump files for every external tool execution.
	DebugToolDumps bool `json:"debug_tool_dumps"`
	// ToolRetry enables exactly one extra attempt per failed external tool execution.
	ToolRetry bool `json:"tool_retry"`
	// VerboseMemory enables recall-count logging.
	VerboseMemory bool `json:"verbose_memory"`
	// MaxAudioAttachments caps audio attachments transcribed per turn.
	MaxAudioAttachments int `json:"max_audio_attachments"`

	// TranscribeServiceURL is the transcription sidecar endpoint (optional).
	TranscribeServiceURL string `json:"transcribe_service_url"`
	// EmbeddingServiceURL is the embedding sidecar endpoint (optional; recall
	// degrades to recency ordering without it).
	EmbeddingServiceURL    string `json:"embedding_service_url"`
	EmbeddingServiceAPIKey string `json:"embedding_service_api_key"`

	// TTSServiceURL and TTSAPIKey configure the voice synthesis backend.
	TTSServiceURL string `json:"tts_service_url"`
	TTSAPIKey     string `json:"tts_api_key"`
	TTSVoiceID    string `json:"tts_voice_id"`
	// SearchServiceURL is the web search backend (SearxNG-style JSON API).
	SearchServiceURL string `json:"search_service_url"`
	// MusicServiceURL is the music session control backend.
	MusicServiceURL string `json:"music_service_url"`
	// HeartbeatWebhookURL receives heartbeat pulses.
	HeartbeatWebhookURL string `json:"heartbeat_webhook_url"`
}

// DefaultConfigDir returns the project-local .emberbot dir if present, else
// ~/.config/emberbot.
func DefaultConfigDir() string {
	cwd, _ := os.Getwd()
	local := filepath.Join(cwd, ".emberbot")
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "emberbot")
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true" || v == "yes"
}

// New builds config from env and optional config dir. ConfigDir can be empty
// to use the default. A config.json in the dir overrides env values.
func New(configDir string) *Config {
	if configDir == "" {
		if d := os.Getenv("EMBERBOT_CONFIG_DIR"); d != "" {
			configDir = d
		} else {
			configDir = DefaultConfigDir()
		}
	}
	maxAudio := 3
	if v := os.Getenv("EMBERBOT_MAX_AUDIO_ATTACHMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxAudio = n
		}
	}
	cfg := &Config{
		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		Model:                  os.Getenv("EMBERBOT_MODEL"),
		BotName:                os.Getenv("EMBERBOT_BOT_NAME"),
		OwnerUserID:            os.Getenv("EMBERBOT_OWNER_USER_ID"),
		ConfigDir:              configDir,
		DBPath:                 filepath.Join(configDir, "emberbot.db"),
		ToolSpecDir:            filepath.Join(configDir, "toolspec"),
		DumpDir:                filepath.Join(configDir, "dumps"),
		DebugToolDumps:         envBool("EMBERBOT_DEBUG_TOOL_DUMPS"),
		ToolRetry:              envBool("EMBERBOT_TOOL_RETRY"),
		VerboseMemory:          envBool("EMBERBOT_VERBOSE_MEMORY"),
		MaxAudioAttachments:    maxAudio,
		TranscribeServiceURL:   os.Getenv("EMBERBOT_TRANSCRIBE_URL"),
		EmbeddingServiceURL:    os.Getenv("EMBEDDING_SERVICE_URL"),
		EmbeddingServiceAPIKey: os.Getenv("EMBEDDING_SERVICE_API_KEY"),
		TTSServiceURL:          os.Getenv("EMBERBOT_TTS_URL"),
		TTSAPIKey:              os.Getenv("EMBERBOT_TTS_API_KEY"),
		TTSVoiceID:             os.Getenv("EMBERBOT_TTS_VOICE_ID"),
		SearchServiceURL:       os.Getenv("EMBERBOT_SEARCH_URL"),
		MusicServiceURL:        os.Getenv("EMBERBOT_MUSIC_URL"),
		HeartbeatWebhookURL:    os.Getenv("EMBERBOT_HEARTBEAT_WEBHOOK_URL"),
	}
	if cfg.BotName == "" {
		cfg.BotName = "Ember"
	}

	// Priority: Env < Config File. Keys present in JSON overwrite struct
	// fields; missing keys leave the env value untouched.
	configPath := filepath.Join(configDir, "config.json")
	if data, err := os.ReadFile(configPath); err == nil {
		_ = json.Unmarshal(data, cfg)
	}

	return cfg
}
