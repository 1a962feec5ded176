package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeExecutable(t *testing.T, dir, name string) {
	t.Helper()
	script := "#!/bin/sh\necho ok\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestLoadValidManifestWithExecutable(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "greet.json", `{
		"name": "greet",
		"description": "Say hello.",
		"parameters": {"type": "object", "properties": {"who": {"type": "string"}}, "required": ["who"]},
		"idempotent": true
	}`)
	writeExecutable(t, dir, "greet")

	r := New(dir)
	r.Load()

	def, ok := r.Get("greet")
	if !ok {
		t.Fatal("greet not loaded")
	}
	if !def.Idempotent {
		t.Error("idempotent flag lost")
	}
	if def.ExecutablePath == "" {
		t.Error("executable not discovered")
	}
	if !def.External() {
		t.Error("tool with executable should be external")
	}
	if len(r.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", r.Diagnostics())
	}
}

func TestLoadSkipsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "broken.json", `{not json`)

	r := New(dir)
	r.Load()

	if len(r.All()) != 0 {
		t.Errorf("invalid manifest should not load: %v", r.All())
	}
	if len(r.Diagnostics()) != 1 {
		t.Errorf("want one diagnostic, got %v", r.Diagnostics())
	}
}

func TestLoadSkipsMissingName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "anon.json", `{"description": "nameless"}`)

	r := New(dir)
	r.Load()
	if _, ok := r.Get(""); ok {
		t.Error("nameless manifest loaded")
	}
	if len(r.All()) != 0 {
		t.Error("nameless manifest should be skipped entirely")
	}
}

func TestLoadFlagsMissingDescriptionButLoads(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "mute.json", `{"name": "mute", "parameters": {"type": "object"}}`)
	writeExecutable(t, dir, "mute")

	r := New(dir)
	r.Load()
	if _, ok := r.Get("mute"); !ok {
		t.Fatal("tool with missing description should still load")
	}
	found := false
	for _, d := range r.Diagnostics() {
		if strings.Contains(d, "missing description") {
			found = true
		}
	}
	if !found {
		t.Errorf("no missing-description diagnostic: %v", r.Diagnostics())
	}
}

func TestLoadDefaultsMissingSchema(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "bare.json", `{"name": "bare", "description": "no schema"}`)
	writeExecutable(t, dir, "bare")

	r := New(dir)
	r.Load()
	def, ok := r.Get("bare")
	if !ok {
		t.Fatal("tool not loaded")
	}
	if def.Parameters.Type != "object" {
		t.Errorf("schema not defaulted: %+v", def.Parameters)
	}
}

func TestLoadFlagsBuiltinOnly(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "ghost.json", `{"name": "ghost", "description": "no binary", "parameters": {"type": "object"}}`)

	r := New(dir)
	r.Load()
	def, ok := r.Get("ghost")
	if !ok {
		t.Fatal("manifest without executable should still load")
	}
	if def.External() {
		t.Error("tool without executable must not be external")
	}
	found := false
	for _, d := range r.Diagnostics() {
		if strings.Contains(d, "built-in-only") {
			found = true
		}
	}
	if !found {
		t.Errorf("no built-in-only diagnostic: %v", r.Diagnostics())
	}
}

func TestReloadRemovesStaleTools(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "old.json", `{"name": "old", "description": "goes away", "parameters": {"type": "object"}}`)
	writeExecutable(t, dir, "old")

	r := New(dir)
	r.Load()
	if _, ok := r.Get("old"); !ok {
		t.Fatal("old not loaded")
	}

	if err := os.Remove(filepath.Join(dir, "old.json")); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "new.json", `{"name": "new", "description": "replaces it", "parameters": {"type": "object"}}`)
	writeExecutable(t, dir, "new")
	r.Reload()

	if _, ok := r.Get("old"); ok {
		t.Error("stale tool survived reload")
	}
	if _, ok := r.Get("new"); !ok {
		t.Error("new tool not picked up by reload")
	}
}
