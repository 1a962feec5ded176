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

// musicActions are the commands the playback service accepts.
var musicActions = map[string]bool{
	"play":   true,
	"pause":  true,
	"resume": true,
	"skip":   true,
	"stop":   true,
	"queue":  true,
}

// MusicControl drives the shared playback session. Failures are reported as
// an "error: ..." result string rather than a Go error so the model sees the
// service's own message verbatim.
type MusicControl struct {
	URL  string
	HTTP *http.Client
}

func (m *MusicControl) Name() string { return "music_control" }

func (m *MusicControl) client() *http.Client {
	if m.HTTP != nil {
		return m.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (m *MusicControl) Execute(ctx context.Context, args map[string]any) (string, error) {
	action := strings.ToLower(strings.TrimSpace(stringArg(args, "action")))
	if action == "" {
		return "", fmt.Errorf("action is required (play, pause, resume, skip, stop, queue)")
	}
	if !musicActions[action] {
		return "", fmt.Errorf("unknown action %q", action)
	}
	query := strings.TrimSpace(stringArg(args, "query"))
	if (action == "play" || action == "queue") && query == "" {
		return "", fmt.Errorf("%s requires a query", action)
	}
	if m.URL == "" {
		return "", fmt.Errorf("music service is not configured")
	}

	payload, _ := json.Marshal(map[string]string{"action": action, "query": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("music service unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	text := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK {
		if text == "" {
			text = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "error: " + text, nil
	}
	if text == "" {
		text = fmt.Sprintf("%s acknowledged", action)
	}
	return text, nil
}
