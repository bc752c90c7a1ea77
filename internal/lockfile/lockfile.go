// Package lockfile reconciles Cargo.lock format-version markers between the
// shader crate and its enclosing workspace. Stable toolchains write marker
// version 4; the old pinned toolchains the backend needs refuse to parse it.
// When enabled, the marker is downgraded in place for the duration of the
// build and every touched file is restored byte-for-byte afterwards.
package lockfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prismforge/gpubuild/internal/proc"
	"github.com/prismforge/gpubuild/internal/toolchain"
)

// ErrLockfile marks unsupported marker versions and restoration failures.
var ErrLockfile = errors.New("lockfile")

// lockfileV4Rust is the first rustc release whose cargo writes marker
// version 4 by default.
var lockfileV4Rust = toolchain.Version{Major: 1, Minor: 83}

// Patch is the scoped handle returned by Reconcile. Callers must arrange for
// Restore to run on every exit path of the build (defer). A Patch from a
// no-op reconciliation restores nothing.
type Patch struct {
	files []patchedFile
	// Advice is a human-readable note set when a conflict was detected but
	// reconciliation was disabled. The build proceeds; the caller should
	// surface it.
	Advice string
}

type patchedFile struct {
	path     string
	original []byte
}

// Touched returns the paths this patch will restore.
func (p *Patch) Touched() []string {
	paths := make([]string, len(p.files))
	for i, f := range p.files {
		paths[i] = f.path
	}
	return paths
}

// Restore puts every recorded file back to its exact original bytes. It is
// idempotent. A failure here does not invalidate artifacts the build already
// produced; callers report it as a prominent warning rather than a build
// failure.
func (p *Patch) Restore() error {
	var errs []error
	for _, f := range p.files {
		if err := os.WriteFile(f.path, f.original, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("%w: restoring %s: %v", ErrLockfile, f.path, err))
		}
	}
	p.files = nil
	return errors.Join(errs...)
}

// Reconcile inspects the shader crate's and enclosing workspace's Cargo.lock
// markers against the rustc versions in play and downgrades v4 markers where
// the old toolchain would choke on them. With enabled=false, conflicts are
// reported in Patch.Advice but nothing is mutated.
func Reconcile(ctx context.Context, r proc.Runner, crateDir, channel string, enabled bool) (*Patch, error) {
	p := &Patch{}

	workspaceRust, err := toolchain.RustcVersion(ctx, r, "")
	if err != nil {
		return nil, fmt.Errorf("%w: querying workspace rustc: %v", ErrLockfile, err)
	}
	if !workspaceRust.AtLeast(lockfileV4Rust) {
		// The user's own cargo writes v3; a v4 marker in the shader crate
		// means the shader was locked elsewhere. Recorded for restore.
		if err := p.reconcileDir(crateDir, enabled, true); err != nil {
			return nil, err
		}
	}

	shaderRust, err := toolchain.RustcVersion(ctx, r, channel)
	if err != nil {
		return nil, fmt.Errorf("%w: querying rustc for %s: %v", ErrLockfile, channel, err)
	}
	if shaderRust.AtLeast(lockfileV4Rust) {
		return p, nil
	}

	// The shader crate's own lock is brought to the state the old toolchain
	// would have written anyway, so it is not recorded for restore.
	if err := p.reconcileDir(crateDir, enabled, false); err != nil {
		return nil, err
	}

	if wsRoot := workspaceRoot(crateDir); wsRoot != "" {
		if err := p.reconcileDir(wsRoot, enabled, true); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// reconcileDir checks dir's Cargo.lock marker, downgrading a v4 marker to v3
// when enabled. With record set, the original bytes are kept for restore.
func (p *Patch) reconcileDir(dir string, enabled, record bool) error {
	path := filepath.Join(dir, "Cargo.lock")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", ErrLockfile, path, err)
	}

	switch markerVersion(data) {
	case 3:
		return nil
	case 4:
		if !enabled {
			p.Advice = conflictAdvice(path)
			return nil
		}
	default:
		return fmt.Errorf("%w: unrecognized Cargo.lock marker version in %s", ErrLockfile, path)
	}

	patched := bytes.Replace(data, []byte("\nversion = 4\n"), []byte("\nversion = 3\n"), 1)
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		return fmt.Errorf("%w: patching %s: %v", ErrLockfile, path, err)
	}
	if record {
		p.files = append(p.files, patchedFile{path: path, original: data})
	}
	return nil
}

// markerVersion reads the `version = N` marker from the lockfile header.
// Cargo writes it on the third line; 0 means unrecognized.
func markerVersion(data []byte) int {
	lines := strings.SplitN(string(data), "\n", 4)
	if len(lines) < 3 {
		return 0
	}
	switch {
	case strings.Contains(lines[2], "version = 4"):
		return 4
	case strings.Contains(lines[2], "version = 3"):
		return 3
	default:
		return 0
	}
}

// workspaceRoot finds the enclosing workspace's directory by walking up from
// the crate looking for a Cargo.lock, but only when the crate opts into a
// workspace. Cargo metadata can't be used here: it refuses to run with the
// very marker conflict we're trying to fix.
func workspaceRoot(crateDir string) string {
	manifest, err := os.ReadFile(filepath.Join(crateDir, "Cargo.toml"))
	if err != nil || !strings.Contains(string(manifest), "workspace = true") {
		return ""
	}
	dir, err := filepath.Abs(crateDir)
	if err != nil {
		return ""
	}
	for range 15 {
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
		if _, err := os.Stat(filepath.Join(dir, "Cargo.lock")); err == nil {
			return dir
		}
	}
	return ""
}

func conflictAdvice(path string) string {
	return fmt.Sprintf(`conflicting Cargo.lock marker versions detected (%s is v4, the shader toolchain expects v3).
The shader toolchain is older than the workspace toolchain. Either pin the
workspace to the shader's toolchain, exclude the shader crate from the
workspace, or pass --force-lockfile-downgrade to rewrite the marker for the
duration of the build.`, path)
}
