package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxSearchResults caps how many hits are folded into the result text.
const maxSearchResults = 5

// WebSearch queries a self-hosted search endpoint and formats the top hits
// into a compact text block the model can cite from.
type WebSearch struct {
	URL  string
	HTTP *http.Client
}

func (w *WebSearch) Name() string { return "web_search" }

func (w *WebSearch) client() *http.Client {
	if w.HTTP != nil {
		return w.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

type searchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (w *WebSearch) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	if w.URL == "" {
		return "", fmt.Errorf("search is not configured")
	}

	u := w.URL + "?format=json&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed struct {
		Results []searchHit `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("search response parse: %w", err)
	}
	if len(parsed.Results) == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, hit := range parsed.Results {
		if i >= maxSearchResults {
			break
		}
		snippet := hit.Content
		if len(snippet) > 300 {
			snippet = snippet[:300] + "…"
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, hit.Title, hit.URL, snippet)
	}
	return strings.TrimSpace(b.String()), nil
}
