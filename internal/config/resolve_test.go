package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	crate := t.TempDir()
	writeManifest(t, crate, "[package]\nname = \"shader\"\n")

	cfg, err := Resolve(BuildConfig{}, nil, crate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	def := Defaults()
	if cfg.Target != def.Target {
		t.Errorf("Target = %q, want default %q", cfg.Target, def.Target)
	}
	if !cfg.Release {
		t.Error("Release should default to true")
	}
	if cfg.ManifestFile != "manifest.json" {
		t.Errorf("ManifestFile = %q", cfg.ManifestFile)
	}
	if !cfg.ClearTarget {
		t.Error("ClearTarget should default to true")
	}
}

func TestResolvePrecedence(t *testing.T) {
	// Workspace sets target and multimodule; crate overrides target; CLI
	// overrides multimodule. Each layer must win over the one below it.
	ws := t.TempDir()
	writeManifest(t, ws, `[workspace]
members = ["shader"]

[workspace.metadata.gpu]
target = "spirv-unknown-vulkan1.0"
multimodule = true
deny-warnings = true
`)
	crate := filepath.Join(ws, "shader")
	writeManifest(t, crate, `[package]
name = "shader"

[package.metadata.gpu]
target = "spirv-unknown-vulkan1.1"
`)

	cli := BuildConfig{MultiModule: false}
	cfg, err := Resolve(cli, map[string]bool{"multimodule": true}, crate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Target != "spirv-unknown-vulkan1.1" {
		t.Errorf("crate table should override workspace target, got %q", cfg.Target)
	}
	if cfg.MultiModule {
		t.Error("explicit CLI flag should override workspace multimodule")
	}
	if !cfg.DenyWarnings {
		t.Error("workspace deny-warnings should apply when nothing overrides it")
	}
}

func TestResolveUnsuppliedCLIFlagDoesNotOverride(t *testing.T) {
	crate := t.TempDir()
	writeManifest(t, crate, `[package]
name = "shader"

[package.metadata.gpu]
release = false
`)

	// CLI carries the flag default (true) but the flag was not supplied, so
	// the manifest value must win.
	cfg, err := Resolve(BuildConfig{Release: true}, map[string]bool{}, crate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Release {
		t.Error("manifest release=false should win over unsupplied CLI flag")
	}
}

func TestResolveRelativeOutputDirAnchoredToCrate(t *testing.T) {
	crate := t.TempDir()
	writeManifest(t, crate, `[package]
name = "shader"

[package.metadata.gpu]
output-dir = "out"
`)

	cfg, err := Resolve(BuildConfig{}, nil, crate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := filepath.Join(crate, "out"); cfg.OutputDir != want {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, want)
	}
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*BuildConfig)
	}{
		{"unknown target", func(c *BuildConfig) { c.Target = "x86_64-unknown-linux-gnu" }},
		{"unknown capability", func(c *BuildConfig) { c.Capabilities = []string{"Nonsense"} }},
		{"bad extension prefix", func(c *BuildConfig) { c.Extensions = []string{"GL_EXT_foo"} }},
		{"bad metadata level", func(c *BuildConfig) { c.SpirvMetadata = "everything" }},
		{"manifest file with path", func(c *BuildConfig) { c.ManifestFile = "out/manifest.json" }},
		{"backend source without version", func(c *BuildConfig) { c.BackendSource = "https://example.com/repo" }},
	}

	crate := t.TempDir()
	writeManifest(t, crate, "[package]\nname = \"shader\"\n")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := Defaults()
			tt.mut(&cli)
			set := map[string]bool{
				"target": true, "capabilities": true, "extensions": true,
				"spirv-metadata": true, "manifest-file": true,
				"backend-source": true,
			}
			_, err := Resolve(cli, set, crate)
			if !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("want ErrInvalidOption, got %v", err)
			}
		})
	}
}

func TestResolveMissingManifest(t *testing.T) {
	_, err := Resolve(BuildConfig{}, nil, filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("want ErrInvalidOption for missing Cargo.toml, got %v", err)
	}
}

func TestTargetsSorted(t *testing.T) {
	targets := Targets()
	if len(targets) == 0 {
		t.Fatal("no targets registered")
	}
	for i := 1; i < len(targets); i++ {
		if targets[i-1] >= targets[i] {
			t.Fatalf("targets not sorted: %q before %q", targets[i-1], targets[i])
		}
	}
	for _, triple := range targets {
		if !knownTargets[triple] {
			t.Errorf("Targets() returned unknown triple %q", triple)
		}
	}
}
