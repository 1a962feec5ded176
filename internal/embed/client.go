// Package embed is the HTTP client for the embedding service used to rank
// memories by relevance.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emberbot/emberbot/internal/core"
)

// Client calls a self-hosted embedding API: POST {BaseURL}/embed with
// x-api-key auth, returning one vector per input.
type Client struct {
	BaseURL   string
	APIKey    string
	Dimension int
	HTTP      *http.Client
}

// NewClient creates a client. dimension falls back to 768.
func NewClient(baseURL, apiKey string, dimension int) *Client {
	if dimension <= 0 {
		dimension = 768
	}
	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		Dimension: dimension,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Input     string `json:"input"`
	Type      string `json:"type"`
	Dimension int    `json:"dimension"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("embed: base URL not set")
	}
	raw, err := json.Marshal(embedRequest{Input: text, Type: "query", Dimension: c.Dimension})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: HTTP %d: %s", resp.StatusCode, string(body))
	}
	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("embed: decode: %w", err)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embed: empty response")
	}
	vec := make([]float32, len(out.Embeddings[0]))
	for i, v := range out.Embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}

var _ core.Embedder = (*Client)(nil)
