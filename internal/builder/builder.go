// Package builder orchestrates shader compiles: it translates the resolved
// configuration into a compiler invocation, runs it with captured output,
// and assembles the produced modules plus an entry-point manifest in the
// output directory. Output writing is all-or-nothing per build; a failed
// compile never disturbs previous output.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/proc"
)

// Result is a successful build's output.
type Result struct {
	// Modules are the written module files, in manifest order.
	Modules []string
	// ManifestPath is the written manifest file.
	ManifestPath string
	// Manifest is the entry-point table that was written.
	Manifest Manifest
}

// Builder runs compile jobs. One Builder is used for the whole invocation,
// including every watch-mode rebuild.
type Builder struct {
	Runner  proc.Runner
	Verbose bool
}

// Run performs one compile job against the shader crate and, on success,
// promotes the produced modules and manifest into the output directory.
func (b *Builder) Run(ctx context.Context, cfg config.BuildConfig, artifact backend.Artifact, channel, specDir string) (Result, error) {
	crate, err := filepath.Abs(cfg.ShaderCrate)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	if info, err := os.Stat(crate); err != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("%w: shader crate %q does not exist", ErrCompile, crate)
	}
	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: creating output dir: %v", ErrCompile, err)
	}

	cmd := compileCommand(cfg, artifact, channel, specDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logf("compiling shaders at %s", crate)
	runErr := b.Runner.Run(ctx, cmd)
	parsed := parseMessages(stdout.String())

	if runErr != nil {
		return Result{}, fmt.Errorf("%w: %v\n%s%s", ErrCompile, runErr,
			strings.Join(parsed.Diagnostics, ""), stderr.String())
	}
	if cfg.DenyWarnings && parsed.Warnings > 0 {
		return Result{}, fmt.Errorf("%w (%d warnings)\n%s", ErrDenyWarnings,
			parsed.Warnings, strings.Join(parsed.Diagnostics, ""))
	}
	if parsed.ModulePath == "" {
		return Result{}, fmt.Errorf("%w: compiler reported success but emitted no module", ErrCompile)
	}

	modules, err := collectModules(parsed.ModulePath, cfg.MultiModule)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	return b.promote(modules, crate, outputDir, cfg.ManifestFile)
}

// moduleFile pairs an entry point with the compiler-emitted file that holds
// it. In single-module builds every entry point shares one file.
type moduleFile struct {
	entryPoint string
	path       string
}

// collectModules enumerates the compiler's output. Multimodule builds emit a
// sibling directory of per-entry-point modules; single-module builds emit
// the one file plus a sidecar naming its entry points.
func collectModules(modulePath string, multi bool) ([]moduleFile, error) {
	if !multi {
		entries, err := readEntrySidecar(modulePath)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("module %s exports no entry points", modulePath)
		}
		files := make([]moduleFile, len(entries))
		for i, entry := range entries {
			files[i] = moduleFile{entryPoint: entry, path: modulePath}
		}
		return files, nil
	}

	dir := strings.TrimSuffix(modulePath, ".spv") + ".dir"
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing multimodule output %s: %w", dir, err)
	}
	var files []moduleFile
	for _, entry := range listing {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".spv") {
			continue
		}
		files = append(files, moduleFile{
			entryPoint: strings.TrimSuffix(name, ".spv"),
			path:       filepath.Join(dir, name),
		})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no shader modules found in %s", dir)
	}
	return files, nil
}

// promote stages modules and the manifest, then renames everything into the
// output directory. Staging lives inside the output directory so the final
// renames never cross a filesystem boundary.
func (b *Builder) promote(modules []moduleFile, crate, outputDir, manifestFile string) (Result, error) {
	stage, err := os.MkdirTemp(outputDir, ".stage-")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	defer os.RemoveAll(stage)

	var m Manifest
	staged := make(map[string]string) // staged path -> final path
	for _, mod := range modules {
		finalName := filepath.Base(mod.path)
		finalPath := filepath.Join(outputDir, finalName)
		stagedPath := filepath.Join(stage, finalName)
		if _, seen := staged[stagedPath]; !seen {
			if err := copyFile(mod.path, stagedPath); err != nil {
				return Result{}, fmt.Errorf("%w: staging %s: %v", ErrCompile, mod.path, err)
			}
			staged[stagedPath] = finalPath
		}
		m = append(m, NewLinkage(mod.entryPoint, relativeTo(crate, finalPath)))
	}
	m.Sort()

	stagedManifest := filepath.Join(stage, manifestFile)
	if err := m.WriteFile(stagedManifest); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	staged[stagedManifest] = filepath.Join(outputDir, manifestFile)

	for from, to := range staged {
		if err := os.Rename(from, to); err != nil {
			return Result{}, fmt.Errorf("%w: promoting %s: %v", ErrCompile, to, err)
		}
	}

	result := Result{ManifestPath: filepath.Join(outputDir, manifestFile), Manifest: m}
	for _, link := range m {
		module := filepath.Join(outputDir, filepath.Base(link.SourcePath))
		if len(result.Modules) == 0 || result.Modules[len(result.Modules)-1] != module {
			result.Modules = append(result.Modules, module)
		}
	}
	b.logf("wrote %d module(s) and %s", len(result.Modules), result.ManifestPath)
	return result, nil
}

// relativeTo renders path relative to the shader crate when possible, so
// manifests stay stable across machines.
func relativeTo(crate, path string) string {
	rel, err := filepath.Rel(crate, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (b *Builder) logf(format string, args ...any) {
	if b.Verbose {
		fmt.Fprintf(os.Stderr, "[builder] "+format+"\n", args...)
	}
}
