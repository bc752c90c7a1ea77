package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Linkage maps one entry point to the module file that contains it. The
// manifest is consumed by downstream build scripts, so field names and
// ordering are part of the contract.
type Linkage struct {
	// SourcePath is the module file, relative to the shader crate where
	// possible, always with forward slashes.
	SourcePath string `json:"source_path"`
	// EntryPoint is the symbol name as SPIR-V sees it.
	EntryPoint string `json:"entry_point"`
	// WGSLEntryPoint is the same name with `::` separators removed, for
	// toolchains that translate the module to WGSL.
	WGSLEntryPoint string `json:"wgsl_entry_point"`
}

// Manifest is the ordered entry-point table for one build.
type Manifest []Linkage

// NewLinkage builds a Linkage, normalizing the module path to forward
// slashes.
func NewLinkage(entryPoint, modulePath string) Linkage {
	return Linkage{
		SourcePath:     filepath.ToSlash(modulePath),
		EntryPoint:     entryPoint,
		WGSLEntryPoint: strings.ReplaceAll(entryPoint, "::", ""),
	}
}

// Sort orders the manifest by entry point so output is deterministic.
func (m Manifest) Sort() {
	sort.Slice(m, func(i, j int) bool { return m[i].EntryPoint < m[j].EntryPoint })
}

// WriteFile serializes the manifest as pretty JSON.
func (m Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}
