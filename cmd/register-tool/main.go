// register-tool installs an external tool into the toolspec directory: the
// binary is copied next to a generated manifest, and a running bot picks
// both up through the directory watch.
// Usage: register-tool <name> <binary_path> [description]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emberbot/emberbot/internal/config"
	"github.com/emberbot/emberbot/internal/core"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: register-tool <name> <binary_path> [description]\n")
		os.Exit(1)
	}
	name := os.Args[1]
	binaryPath := os.Args[2]
	description := ""
	if len(os.Args) > 3 {
		description = os.Args[3]
	}

	cfg := config.New("")
	if err := os.MkdirAll(cfg.ToolSpecDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "toolspec dir: %v\n", err)
		os.Exit(1)
	}

	if err := copyExecutable(binaryPath, filepath.Join(cfg.ToolSpecDir, name)); err != nil {
		fmt.Fprintf(os.Stderr, "install binary: %v\n", err)
		os.Exit(1)
	}

	manifest := map[string]any{
		"name":        name,
		"description": description,
		"parameters":  core.ParamSchema{Type: "object"},
	}
	data, _ := json.MarshalIndent(manifest, "", "  ")
	manifestPath := filepath.Join(cfg.ToolSpecDir, name+".json")
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("registered", name, "in", cfg.ToolSpecDir)
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
