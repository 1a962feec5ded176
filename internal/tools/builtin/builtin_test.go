package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeSynth struct{ audio []byte }

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, nil
}

type fakeDeliverer struct {
	target   string
	filename string
	audio    []byte
}

func (f *fakeDeliverer) DeliverAudio(ctx context.Context, target, filename string, audio []byte) error {
	f.target, f.filename, f.audio = target, filename, audio
	return nil
}

func TestVoiceMessageDelivers(t *testing.T) {
	d := &fakeDeliverer{}
	v := &VoiceMessage{TTS: &fakeSynth{audio: []byte("OGGDATA")}, Deliverer: d}

	out, err := v.Execute(context.Background(), map[string]any{
		"text": "hey, I missed you", "target": "console:stdio",
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.target != "console:stdio" {
		t.Errorf("target %q", d.target)
	}
	if string(d.audio) != "OGGDATA" {
		t.Errorf("audio %q", d.audio)
	}
	if !strings.Contains(out, "delivered") {
		t.Errorf("result %q", out)
	}
}

func TestVoiceMessageRequiresText(t *testing.T) {
	v := &VoiceMessage{TTS: &fakeSynth{}, Deliverer: &fakeDeliverer{}}
	if _, err := v.Execute(context.Background(), map[string]any{"target": "console:stdio"}); err == nil {
		t.Error("missing text must fail")
	}
	if _, err := v.Execute(context.Background(), map[string]any{
		"text": strings.Repeat("a", maxVoiceTextLength+1), "target": "console:stdio",
	}); err == nil {
		t.Error("over-length text must fail")
	}
}

func TestWebSearchFormatsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "red pandas" {
			t.Errorf("query %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Red panda", "url": "https://example.com/rp", "content": "A small arboreal mammal."},
			},
		})
	}))
	defer srv.Close()

	w := &WebSearch{URL: srv.URL}
	out, err := w.Execute(context.Background(), map[string]any{"query": "red pandas"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Red panda") || !strings.Contains(out, "example.com") {
		t.Errorf("result %q", out)
	}
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	w := &WebSearch{URL: srv.URL}
	out, err := w.Execute(context.Background(), map[string]any{"query": "xyzzy"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No results") {
		t.Errorf("result %q", out)
	}
}

func TestHeartbeatValidatesTemperature(t *testing.T) {
	h := &Heartbeat{URL: "http://unused.invalid"}
	if _, err := h.Execute(context.Background(), map[string]any{
		"temperature": "boiling", "intent": "excitement",
	}); err == nil {
		t.Error("unknown temperature must fail before any request")
	}
}

func TestHeartbeatSendsPulse(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := &Heartbeat{URL: srv.URL}
	out, err := h.Execute(context.Background(), map[string]any{
		"temperature": "racing", "intent": "she said she got the job",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["temperature"] != "racing" {
		t.Errorf("payload %v", got)
	}
	if !strings.Contains(out, "racing") {
		t.Errorf("result %q", out)
	}
}

func TestMusicControlErrorMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("nothing is playing"))
	}))
	defer srv.Close()

	m := &MusicControl{URL: srv.URL}
	out, err := m.Execute(context.Background(), map[string]any{"action": "pause"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "error") {
		t.Errorf("service failure should surface as an error marker, got %q", out)
	}
}

func TestMusicControlPlayRequiresQuery(t *testing.T) {
	m := &MusicControl{URL: "http://unused.invalid"}
	if _, err := m.Execute(context.Background(), map[string]any{"action": "play"}); err == nil {
		t.Error("play without query must fail")
	}
}
