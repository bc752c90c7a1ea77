package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Table is the `[package.metadata.gpu]` (or `[workspace.metadata.gpu]`)
// section of a Cargo.toml. Pointer fields distinguish "unset" from a supplied
// zero value so precedence can be applied per option.
type Table struct {
	BackendSource  *string `toml:"backend-source"`
	BackendVersion *string `toml:"backend-version"`

	Target      *string  `toml:"target"`
	Features    []string `toml:"features"`
	Release     *bool    `toml:"release"`
	MultiModule *bool    `toml:"multimodule"`

	SpirvMetadata *string  `toml:"spirv-metadata"`
	Capabilities  []string `toml:"capabilities"`
	Extensions    []string `toml:"extensions"`

	RelaxStructStore            *bool `toml:"relax-struct-store"`
	RelaxLogicalPointer         *bool `toml:"relax-logical-pointer"`
	RelaxBlockLayout            *bool `toml:"relax-block-layout"`
	UniformBufferStandardLayout *bool `toml:"uniform-buffer-standard-layout"`

	OutputDir    *string `toml:"output-dir"`
	ManifestFile *string `toml:"manifest-file"`

	DenyWarnings *bool `toml:"deny-warnings"`

	RebuildBackend         *bool `toml:"rebuild-backend"`
	AutoInstallToolchain   *bool `toml:"auto-install-toolchain"`
	ForceLockfileDowngrade *bool `toml:"force-lockfile-downgrade"`
	ClearTarget            *bool `toml:"clear-target"`
}

type cargoManifest struct {
	Package *struct {
		Name     string `toml:"name"`
		Metadata struct {
			GPU *Table `toml:"gpu"`
		} `toml:"metadata"`
	} `toml:"package"`
	Workspace *struct {
		Metadata struct {
			GPU *Table `toml:"gpu"`
		} `toml:"metadata"`
	} `toml:"workspace"`
}

// loadMetadata reads the crate's metadata table with any enclosing
// workspace's table layered beneath it. A crate value always beats a
// workspace value; either may be absent.
func loadMetadata(crateDir string) (Table, error) {
	crate, err := readManifest(filepath.Join(crateDir, "Cargo.toml"))
	if err != nil {
		return Table{}, err
	}

	merged := Table{}
	if ws := findWorkspaceManifest(crateDir); ws != nil && ws.Workspace != nil {
		if t := ws.Workspace.Metadata.GPU; t != nil {
			merged = *t
		}
	}
	if crate.Package != nil {
		if t := crate.Package.Metadata.GPU; t != nil {
			overlay(&merged, t, crateDir)
		}
	}
	return merged, nil
}

func readManifest(path string) (*cargoManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}

// findWorkspaceManifest walks up from the crate looking for a Cargo.toml
// with a [workspace] section. Bounded so a stray manifest at / can't send us
// on a long crawl.
func findWorkspaceManifest(crateDir string) *cargoManifest {
	dir, err := filepath.Abs(crateDir)
	if err != nil {
		return nil
	}
	for range 15 {
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
		m, err := readManifest(filepath.Join(dir, "Cargo.toml"))
		if err != nil {
			continue
		}
		if m.Workspace != nil {
			return m
		}
	}
	return nil
}

// overlay copies every set field of src over dst. Relative output dirs in a
// crate table are anchored to the Cargo.toml they were found in.
func overlay(dst, src *Table, crateDir string) {
	if src.BackendSource != nil {
		dst.BackendSource = src.BackendSource
	}
	if src.BackendVersion != nil {
		dst.BackendVersion = src.BackendVersion
	}
	if src.Target != nil {
		dst.Target = src.Target
	}
	if src.Features != nil {
		dst.Features = src.Features
	}
	if src.Release != nil {
		dst.Release = src.Release
	}
	if src.MultiModule != nil {
		dst.MultiModule = src.MultiModule
	}
	if src.SpirvMetadata != nil {
		dst.SpirvMetadata = src.SpirvMetadata
	}
	if src.Capabilities != nil {
		dst.Capabilities = src.Capabilities
	}
	if src.Extensions != nil {
		dst.Extensions = src.Extensions
	}
	if src.RelaxStructStore != nil {
		dst.RelaxStructStore = src.RelaxStructStore
	}
	if src.RelaxLogicalPointer != nil {
		dst.RelaxLogicalPointer = src.RelaxLogicalPointer
	}
	if src.RelaxBlockLayout != nil {
		dst.RelaxBlockLayout = src.RelaxBlockLayout
	}
	if src.UniformBufferStandardLayout != nil {
		dst.UniformBufferStandardLayout = src.UniformBufferStandardLayout
	}
	if src.OutputDir != nil {
		out := *src.OutputDir
		if !filepath.IsAbs(out) {
			out = filepath.Join(crateDir, out)
		}
		dst.OutputDir = &out
	}
	if src.ManifestFile != nil {
		dst.ManifestFile = src.ManifestFile
	}
	if src.DenyWarnings != nil {
		dst.DenyWarnings = src.DenyWarnings
	}
	if src.RebuildBackend != nil {
		dst.RebuildBackend = src.RebuildBackend
	}
	if src.AutoInstallToolchain != nil {
		dst.AutoInstallToolchain = src.AutoInstallToolchain
	}
	if src.ForceLockfileDowngrade != nil {
		dst.ForceLockfileDowngrade = src.ForceLockfileDowngrade
	}
	if src.ClearTarget != nil {
		dst.ClearTarget = src.ClearTarget
	}
}
