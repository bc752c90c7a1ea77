package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prismforge/gpubuild/internal/proc"
)

// ResolveChannel determines the nightly channel the backend checkout pins.
// It locates the rustc_codegen_spirv package via `cargo metadata` (which also
// pulls the crate into cargo's cache on first run) and scans its build script
// for the `channel = "..."` line.
func ResolveChannel(ctx context.Context, r proc.Runner, checkoutDir string) (string, error) {
	out, err := proc.Output(ctx, r, checkoutDir, "cargo", "metadata", "--format-version", "1")
	if err != nil {
		return "", fmt.Errorf("querying metadata in %s: %w", checkoutDir, err)
	}

	var meta struct {
		Packages []struct {
			Name         string `json:"name"`
			ManifestPath string `json:"manifest_path"`
		} `json:"packages"`
	}
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return "", fmt.Errorf("parsing cargo metadata: %w", err)
	}

	for _, pkg := range meta.Packages {
		if pkg.Name != "rustc_codegen_spirv" {
			continue
		}
		buildScript := filepath.Join(filepath.Dir(pkg.ManifestPath), "build.rs")
		return channelFromBuildScript(buildScript)
	}
	return "", fmt.Errorf("rustc_codegen_spirv not found in metadata of %s", checkoutDir)
}

// channelFromBuildScript extracts the pinned channel from a line like
//
//	channel = "nightly-2024-04-24"
func channelFromBuildScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading backend build script: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), `channel = "`)
		if !ok {
			continue
		}
		channel, _, ok := strings.Cut(rest, `"`)
		if !ok || channel == "" {
			break
		}
		return channel, nil
	}
	return "", fmt.Errorf("no channel pin found in %s", path)
}
