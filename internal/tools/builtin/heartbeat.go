package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// heartbeatTemps are the accepted temperature tags, coolest to warmest.
var heartbeatTemps = map[string]bool{
	"resting": true,
	"warm":    true,
	"racing":  true,
}

// Heartbeat sends a temperature-tagged pulse to the companion device
// endpoint. It is gated on an 'intent' argument upstream; here we only
// validate the pulse itself.
type Heartbeat struct {
	URL  string
	HTTP *http.Client
}

func (h *Heartbeat) Name() string { return "send_heartbeat" }

func (h *Heartbeat) client() *http.Client {
	if h.HTTP != nil {
		return h.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (h *Heartbeat) Execute(ctx context.Context, args map[string]any) (string, error) {
	temp := strings.ToLower(strings.TrimSpace(stringArg(args, "temperature")))
	if temp == "" {
		temp = "warm"
	}
	if !heartbeatTemps[temp] {
		return "", fmt.Errorf("temperature must be one of resting, warm, racing (got %q)", temp)
	}
	if h.URL == "" {
		return "", fmt.Errorf("heartbeat endpoint is not configured")
	}

	payload, _ := json.Marshal(map[string]string{
		"temperature": temp,
		"intent":      stringArg(args, "intent"),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("heartbeat send failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("heartbeat HTTP %d", resp.StatusCode)
	}
	return fmt.Sprintf("heartbeat sent (%s)", temp), nil
}
