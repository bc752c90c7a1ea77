// Package config resolves the full build configuration for one invocation.
// Values come from three places, in strict precedence order: CLI flags, the
// shader crate's Cargo.toml `[package.metadata.gpu]` table (with an enclosing
// workspace's `[workspace.metadata.gpu]` table beneath it), and built-in
// defaults. The resolved BuildConfig is immutable for the rest of the
// pipeline.
package config

// BuildConfig is the fully merged, validated option set for one build.
type BuildConfig struct {
	// ShaderCrate is the directory of the shader crate to compile.
	ShaderCrate string
	// BackendSource optionally overrides where the codegen backend comes
	// from (a git URL). Empty means crates.io, or auto-detection from the
	// shader crate's spirv-std dependency when BackendVersion is also empty.
	BackendSource string
	// BackendVersion is a crates.io semver when BackendSource is empty,
	// otherwise a git rev.
	BackendVersion string

	Target      string
	Features    []string
	Release     bool
	Watch       bool
	MultiModule bool

	// SpirvMetadata controls how much reflection metadata is kept in the
	// produced modules: "none", "name-variables" or "full".
	SpirvMetadata string

	Capabilities []string
	Extensions   []string

	RelaxStructStore            bool
	RelaxLogicalPointer         bool
	RelaxBlockLayout            bool
	UniformBufferStandardLayout bool

	OutputDir    string
	ManifestFile string

	DenyWarnings bool

	// RebuildBackend forces the codegen backend to be rebuilt even when a
	// matching cache entry exists.
	RebuildBackend bool
	// AutoInstallToolchain skips the consent prompt before installing a
	// missing toolchain.
	AutoInstallToolchain bool
	// ForceLockfileDowngrade enables the Cargo.lock v4 -> v3 marker rewrite
	// for the duration of the build.
	ForceLockfileDowngrade bool
	// ClearTarget removes the backend's scratch target dir after a
	// successful publish.
	ClearTarget bool

	Verbose bool
}

// Defaults returns the built-in value for every mergeable option.
func Defaults() BuildConfig {
	return BuildConfig{
		ShaderCrate:   "./",
		Target:        "spirv-unknown-vulkan1.2",
		Release:       true,
		SpirvMetadata: "none",
		OutputDir:     "./shaders",
		ManifestFile:  "manifest.json",
		ClearTarget:   true,
	}
}
