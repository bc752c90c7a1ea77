// Package backend builds and caches the rustc_codegen_spirv compiler backend.
// Built artifacts are content-addressed by a fingerprint over everything that
// determines their binary identity, so a matching cache entry can be reused
// without running cargo at all.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prismforge/gpubuild/internal/proc"
)

// SourceKind says where the backend's source code comes from.
type SourceKind int

const (
	// CratesIO is a published release, identified by semver.
	CratesIO SourceKind = iota
	// Git is a repository URL plus a rev.
	Git
	// LocalPath is a checkout already on disk, built in place.
	LocalPath
)

// Source locates the backend source to build.
type Source struct {
	Kind    SourceKind
	Version string // semver for CratesIO and LocalPath, rev for Git
	URL     string // Git only
	Path    string // LocalPath only: repo root
}

// String renders the locator the way it appears in cache directory names and
// fingerprints. Git revs are shortened to 8 chars to keep paths portable.
func (s Source) String() string {
	switch s.Kind {
	case Git:
		rev := s.Version
		if len(rev) > 8 {
			rev = rev[:8]
		}
		return s.URL + "+" + rev
	case LocalPath:
		return s.Path + "+" + s.Version
	default:
		return s.Version
	}
}

// DirName converts the locator into a single path component.
func (s Source) DirName() string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ".", "_", ":", "_", "@", "_", "=", "_")
	return replacer.Replace(s.String())
}

// SourceFor picks the backend source: explicit url+rev, explicit crates.io
// version, or detection from the shader crate's spirv-std dependency.
func SourceFor(ctx context.Context, r proc.Runner, crateDir, sourceURL, version string) (Source, error) {
	if sourceURL != "" {
		return Source{Kind: Git, URL: sourceURL, Version: version}, nil
	}
	if version != "" {
		return Source{Kind: CratesIO, Version: version}, nil
	}
	return Detect(ctx, r, crateDir)
}

// Detect reads the shader crate's metadata and derives the backend source
// from its spirv-std dependency, so shaders pin the backend the same way they
// pin any other dependency.
func Detect(ctx context.Context, r proc.Runner, crateDir string) (Source, error) {
	out, err := proc.Output(ctx, r, crateDir, "cargo", "metadata", "--format-version", "1")
	if err != nil {
		return Source{}, fmt.Errorf("querying shader crate metadata: %w", err)
	}

	var meta struct {
		Packages []struct {
			Name         string  `json:"name"`
			Version      string  `json:"version"`
			Source       *string `json:"source"`
			ManifestPath string  `json:"manifest_path"`
		} `json:"packages"`
	}
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return Source{}, fmt.Errorf("parsing shader crate metadata: %w", err)
	}

	for _, pkg := range meta.Packages {
		if pkg.Name != "spirv-std" {
			continue
		}
		if pkg.Source == nil {
			// Path dependency: manifest is <repo>/crates/spirv-std/Cargo.toml.
			root := filepath.Dir(filepath.Dir(filepath.Dir(pkg.ManifestPath)))
			return Source{Kind: LocalPath, Path: root, Version: pkg.Version}, nil
		}
		return parseRegistrySource(*pkg.Source, pkg.Version)
	}
	return Source{}, fmt.Errorf("spirv-std not found among dependencies of %s", crateDir)
}

// parseRegistrySource handles the two registry encodings cargo emits:
//
//	registry+https://github.com/rust-lang/crates.io-index
//	git+https://github.com/Rust-GPU/rust-gpu?rev=abc#abcdef0123
func parseRegistrySource(src, version string) (Source, error) {
	if rest, ok := strings.CutPrefix(src, "git+"); ok {
		url, _, _ := strings.Cut(rest, "?")
		_, rev, ok := strings.Cut(rest, "#")
		if url == "" || !ok || rev == "" {
			return Source{}, fmt.Errorf("unparseable git source %q", src)
		}
		return Source{Kind: Git, URL: url, Version: rev}, nil
	}
	if strings.HasPrefix(src, "registry+") {
		return Source{Kind: CratesIO, Version: version}, nil
	}
	return Source{}, fmt.Errorf("unknown source format %q for spirv-std", src)
}
