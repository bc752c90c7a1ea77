package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prismforge/gpubuild/internal/proc"
)

// ErrCache marks backend build and cache failures. A failed rebuild never
// corrupts a previously published entry.
var ErrCache = errors.New("backend cache")

// markerName is the completion marker inside a published cache slot. A slot
// without it is treated as absent.
const markerName = "complete.json"

// Spec identifies exactly one backend artifact.
type Spec struct {
	Source    Source
	Toolchain string
	Target    string

	// Rebuild forces a build even when a valid entry exists.
	Rebuild bool
	// ClearTarget deletes the scratch target dir after a successful
	// publish, reclaiming a couple hundred MiB.
	ClearTarget bool
}

// Artifact is a published backend plugin.
type Artifact struct {
	// Path to the built dylib, handed to the compiler invocation.
	Path string
	// Fingerprint is the cache key the artifact was published under.
	// Empty for local-path sources, which bypass the cache.
	Fingerprint string
}

// marker records the fingerprint inputs and build time of a published slot.
type marker struct {
	SourceLocator string    `json:"source"`
	Version       string    `json:"version"`
	Toolchain     string    `json:"toolchain"`
	Target        string    `json:"target"`
	Fingerprint   string    `json:"fingerprint"`
	BuiltAt       time.Time `json:"built_at"`
}

// Cache builds and reuses backend artifacts under Root. Root is resolved
// once per process and passed in; nothing here reads ambient state.
type Cache struct {
	Root    string
	Runner  proc.Runner
	Verbose bool
}

// CheckoutDir is where a source's scaffold crate (or local repo) lives.
func (c *Cache) CheckoutDir(source Source) string {
	if source.Kind == LocalPath {
		return source.Path
	}
	return filepath.Join(c.Root, "checkouts", source.DirName())
}

// PrepareCheckout makes sure the source's checkout exists so its toolchain
// pin can be resolved before any build decision is made. No-op for local
// paths.
func (c *Cache) PrepareCheckout(source Source) error {
	if source.Kind == LocalPath {
		return nil
	}
	if err := c.scaffold(source, c.CheckoutDir(source)); err != nil {
		return fmt.Errorf("%w: scaffolding checkout: %v", ErrCache, err)
	}
	return nil
}

// Ensure returns an artifact for the spec, building and publishing one if no
// valid cache entry matches its fingerprint. Concurrent invocations building
// the same fingerprint serialize on a slot-scoped lock; lookups of published
// entries take no lock.
func (c *Cache) Ensure(ctx context.Context, spec Spec) (Artifact, error) {
	if spec.Source.Kind == LocalPath {
		return c.buildLocal(ctx, spec)
	}

	fp := Fingerprint(spec.Source.String(), spec.Source.Version, spec.Toolchain, spec.Target)
	slot := filepath.Join(c.Root, "artifacts", fp)
	artifact := Artifact{Path: filepath.Join(slot, dylibName()), Fingerprint: fp}

	if !spec.Rebuild && slotComplete(slot) {
		c.logf("reusing backend %s", fp[:16])
		return artifact, nil
	}

	if err := os.MkdirAll(filepath.Dir(slot), 0o755); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrCache, err)
	}
	release, err := acquireLock(slot + ".lock")
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: locking cache slot: %v", ErrCache, err)
	}
	defer release()

	// Another invocation may have published while we waited on the lock.
	if !spec.Rebuild && slotComplete(slot) {
		c.logf("reusing backend %s (published concurrently)", fp[:16])
		return artifact, nil
	}

	dylib, err := c.build(ctx, spec)
	if err != nil {
		return Artifact{}, err
	}
	if err := c.publish(slot, dylib, spec, fp); err != nil {
		return Artifact{}, err
	}

	if spec.ClearTarget {
		// Only after the artifact is durably published.
		_ = os.RemoveAll(filepath.Join(c.CheckoutDir(spec.Source), "target"))
	}
	return artifact, nil
}

// buildLocal compiles a local checkout in place. The artifact stays in the
// repo's own target dir and is rebuilt every invocation; fingerprinting a
// mutable working tree would be a lie.
func (c *Cache) buildLocal(ctx context.Context, spec Spec) (Artifact, error) {
	dylib, err := c.build(ctx, spec)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: dylib}, nil
}

func (c *Cache) build(ctx context.Context, spec Spec) (string, error) {
	checkout := c.CheckoutDir(spec.Source)

	if spec.Source.Kind != LocalPath {
		if err := c.scaffold(spec.Source, checkout); err != nil {
			return "", fmt.Errorf("%w: %v", ErrCache, err)
		}
		// A stale lockfile from a previous toolchain can wedge the build.
		_ = os.Remove(filepath.Join(checkout, "Cargo.lock"))
	}

	args := []string{"+" + spec.Toolchain, "build", "--release"}
	if spec.Source.Kind == LocalPath {
		args = append(args, "-p", "rustc_codegen_spirv", "--lib")
	}
	c.logf("building backend in %s", checkout)
	if out, err := proc.Output(ctx, c.Runner, checkout, "cargo", args...); err != nil {
		return "", fmt.Errorf("%w: building backend: %v\n%s", ErrCache, err, out)
	}

	dylib := filepath.Join(checkout, "target", "release", dylibName())
	if _, err := os.Stat(dylib); err != nil {
		return "", fmt.Errorf("%w: build succeeded but %s is missing", ErrCache, dylib)
	}
	return dylib, nil
}

// scaffold writes the dummy crate whose only dependency is the backend, so
// that cargo resolves, downloads and builds it for us.
func (c *Cache) scaffold(source Source, checkout string) error {
	if err := os.MkdirAll(filepath.Join(checkout, "src"), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(checkout, "src", "main.rs"), []byte("fn main() {}\n"), 0o644); err != nil {
		return err
	}

	var dep string
	switch source.Kind {
	case Git:
		dep = fmt.Sprintf("git = %q\nrev = %q", source.URL, source.Version)
	default:
		dep = fmt.Sprintf("version = %q", source.Version)
	}
	manifest := fmt.Sprintf(`[package]
name = "codegen_backend_shim"
version = "0.1.0"
edition = "2021"

[dependencies.spirv-builder]
package = "rustc_codegen_spirv"
%s
`, dep)
	return os.WriteFile(filepath.Join(checkout, "Cargo.toml"), []byte(manifest), 0o644)
}

// publish moves the built dylib and a completion marker into the slot with a
// directory rename, so readers either see a complete entry or none.
func (c *Cache) publish(slot, dylib string, spec Spec, fp string) error {
	tmp := fmt.Sprintf("%s.tmp-%d", slot, os.Getpid())
	defer os.RemoveAll(tmp)

	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	if err := copyFile(dylib, filepath.Join(tmp, dylibName())); err != nil {
		return fmt.Errorf("%w: staging artifact: %v", ErrCache, err)
	}

	m := marker{
		SourceLocator: spec.Source.String(),
		Version:       spec.Source.Version,
		Toolchain:     spec.Toolchain,
		Target:        spec.Target,
		Fingerprint:   fp,
		BuiltAt:       time.Now().UTC(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	if err := os.WriteFile(filepath.Join(tmp, markerName), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}

	if slotComplete(slot) {
		// Forced rebuild over an existing entry: swap, then drop the old.
		old := slot + ".old"
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("%w: %v", ErrCache, err)
		}
		if err := os.Rename(slot, old); err != nil {
			return fmt.Errorf("%w: %v", ErrCache, err)
		}
		if err := os.Rename(tmp, slot); err != nil {
			// Put the previous entry back; it is still valid.
			_ = os.Rename(old, slot)
			return fmt.Errorf("%w: publishing artifact: %v", ErrCache, err)
		}
		_ = os.RemoveAll(old)
		return nil
	}
	if err := os.Rename(tmp, slot); err != nil {
		return fmt.Errorf("%w: publishing artifact: %v", ErrCache, err)
	}
	return nil
}

// ReadMarker returns the completion marker of a published slot.
func (c *Cache) ReadMarker(fingerprint string) (marker, error) {
	var m marker
	data, err := os.ReadFile(filepath.Join(c.Root, "artifacts", fingerprint, markerName))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

func slotComplete(slot string) bool {
	_, err := os.Stat(filepath.Join(slot, markerName))
	return err == nil
}

func dylibName() string {
	switch runtime.GOOS {
	case "windows":
		return "rustc_codegen_spirv.dll"
	case "darwin":
		return "librustc_codegen_spirv.dylib"
	default:
		return "librustc_codegen_spirv.so"
	}
}

func copyFile(src, dst string) error {
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

func (c *Cache) logf(format string, args ...any) {
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[backend] "+format+"\n", args...)
	}
}
