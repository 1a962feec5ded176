package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxVoiceTextLength caps the text fed to synthesis.
const maxVoiceTextLength = 3000

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioDeliverer sends an audio payload to a transport target.
type AudioDeliverer interface {
	DeliverAudio(ctx context.Context, target, filename string, audio []byte) error
}

// VoiceMessage synthesizes speech and delivers it via the transport. Its
// successful execution satisfies the turn on its own: the finalizer
// suppresses the text reply.
type VoiceMessage struct {
	TTS       Synthesizer
	Deliverer AudioDeliverer
}

func (v *VoiceMessage) Name() string { return "send_voice_message" }

func (v *VoiceMessage) Execute(ctx context.Context, args map[string]any) (string, error) {
	text := strings.TrimSpace(strings.ReplaceAll(stringArg(args, "text"), "\x00", ""))
	if text == "" {
		return "", fmt.Errorf("text is required and must be a non-empty string")
	}
	if len(text) > maxVoiceTextLength {
		return "", fmt.Errorf("text too long (%d chars), maximum is %d", len(text), maxVoiceTextLength)
	}
	target := stringArg(args, "target")
	if target == "" {
		return "", fmt.Errorf("target is required")
	}
	if v.TTS == nil || v.Deliverer == nil {
		return "", fmt.Errorf("voice synthesis is not configured")
	}
	audio, err := v.TTS.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}
	filename := fmt.Sprintf("voice-%d.ogg", time.Now().Unix())
	if err := v.Deliverer.DeliverAudio(ctx, target, filename, audio); err != nil {
		return "", fmt.Errorf("delivery failed: %w", err)
	}
	return fmt.Sprintf("voice message delivered to %s (%d chars, %d bytes audio)", target, len(text), len(audio)), nil
}

// HTTPTTS is a minimal text-to-speech HTTP client.
type HTTPTTS struct {
	URL     string
	APIKey  string
	VoiceID string
	HTTP    *http.Client
}

func (c *HTTPTTS) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

// Synthesize posts text to the TTS service and returns the audio bytes.
func (c *HTTPTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("TTS URL not set")
	}
	body, _ := json.Marshal(map[string]string{"text": text, "voice_id": c.VoiceID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
