package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Target-spec JSON files tell rustc how to drive code generation for a
// spirv-unknown-* triple. Newer toolchains no longer ship these built in, so
// we publish one per known triple next to the cached artifacts and point the
// compile invocation at them.

// TargetSpecPath is where the spec file for a triple lives under specDir.
func TargetSpecPath(specDir, triple string) string {
	return filepath.Join(specDir, triple+".json")
}

// WriteTargetSpecs publishes a spec file for every triple, skipping files
// that already exist unless overwrite is set.
func WriteTargetSpecs(specDir string, triples []string, overwrite bool) error {
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		return fmt.Errorf("creating target spec dir: %w", err)
	}
	for _, triple := range triples {
		path := TargetSpecPath(specDir, triple)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		data, err := targetSpec(triple)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing target spec %s: %w", path, err)
		}
	}
	return nil
}

func targetSpec(triple string) ([]byte, error) {
	env, ok := strings.CutPrefix(triple, "spirv-unknown-")
	if !ok {
		return nil, fmt.Errorf("not a spirv target triple: %q", triple)
	}
	spec := map[string]any{
		"arch":                     "spirv",
		"data-layout":              "e-m:e-p:32:32:32-i64:64-n8:16:32:64",
		"dll-prefix":               "",
		"dll-suffix":               ".spv",
		"dynamic-linking":          true,
		"crt-static-allows-dylibs": true,
		"emit-debug-gdb-scripts":   false,
		"allows-weak-linkage":      false,
		"linker-flavor":            "unix",
		"panic-strategy":           "abort",
		"os":                       "unknown",
		"env":                      env,
		"vendor":                   "unknown",
		"simd-types-indirect":      false,
		"target-pointer-width":     "32",
		"llvm-target":              triple,
	}
	return json.MarshalIndent(spec, "", "  ")
}
