package cmd

import (
	"github.com/spf13/cobra"

	"github.com/prismforge/gpubuild/internal/config"
)

// mergeableFlags are the option names that participate in CLI-over-manifest
// precedence. Watch and verbose are CLI-only.
var mergeableFlags = []string{
	"backend-source", "backend-version",
	"target", "features", "release", "multimodule",
	"spirv-metadata", "capabilities", "extensions",
	"relax-struct-store", "relax-logical-pointer", "relax-block-layout",
	"uniform-buffer-standard-layout",
	"output-dir", "manifest-file", "deny-warnings",
	"rebuild-backend", "auto-install-toolchain", "force-lockfile-downgrade",
	"clear-target",
}

// addBuildFlags registers every mergeable option. Defaults shown in help
// match config.Defaults; precedence is applied in config.Resolve, not here.
func addBuildFlags(cmd *cobra.Command) {
	def := config.Defaults()
	f := cmd.Flags()

	f.String("shader-crate", def.ShaderCrate, "directory of the shader crate to compile")
	f.String("backend-source", "", "git URL of the codegen backend (default: crates.io)")
	f.String("backend-version", "", "backend version (crates.io semver, or git rev with --backend-source)")
	f.String("target", def.Target, "SPIR-V target triple")
	f.StringSlice("features", nil, "cargo features to enable in the shader crate")
	f.Bool("release", def.Release, "compile the shader in release mode")
	f.Bool("multimodule", false, "emit one module per entry point")
	f.String("spirv-metadata", def.SpirvMetadata, "metadata to keep in modules: none, name-variables or full")
	f.StringSlice("capabilities", nil, "SPIR-V capabilities to enable")
	f.StringSlice("extensions", nil, "SPIR-V extensions to enable")
	f.Bool("relax-struct-store", false, "relax validation of struct stores")
	f.Bool("relax-logical-pointer", false, "relax validation of logical pointers")
	f.Bool("relax-block-layout", false, "relax block layout validation")
	f.Bool("uniform-buffer-standard-layout", false, "validate uniform buffers with standard layout rules")
	f.String("output-dir", def.OutputDir, "directory for compiled modules and the manifest")
	f.String("manifest-file", def.ManifestFile, "name of the manifest file")
	f.Bool("deny-warnings", false, "treat compiler warnings as a failed build")
	f.Bool("rebuild-backend", false, "rebuild the codegen backend even if cached")
	f.Bool("auto-install-toolchain", false, "install a missing toolchain without prompting")
	f.Bool("force-lockfile-downgrade", false, "rewrite Cargo.lock v4 markers to v3 for the duration of the build")
	f.Bool("clear-target", def.ClearTarget, "remove the backend's scratch target dir after a successful build")
}

// cliOptions reads the flag values into a BuildConfig and records which of
// the mergeable flags were explicitly supplied.
func cliOptions(cmd *cobra.Command) (config.BuildConfig, map[string]bool) {
	f := cmd.Flags()
	var cli config.BuildConfig

	cli.ShaderCrate, _ = f.GetString("shader-crate")
	cli.BackendSource, _ = f.GetString("backend-source")
	cli.BackendVersion, _ = f.GetString("backend-version")
	cli.Target, _ = f.GetString("target")
	cli.Features, _ = f.GetStringSlice("features")
	cli.Release, _ = f.GetBool("release")
	cli.MultiModule, _ = f.GetBool("multimodule")
	cli.SpirvMetadata, _ = f.GetString("spirv-metadata")
	cli.Capabilities, _ = f.GetStringSlice("capabilities")
	cli.Extensions, _ = f.GetStringSlice("extensions")
	cli.RelaxStructStore, _ = f.GetBool("relax-struct-store")
	cli.RelaxLogicalPointer, _ = f.GetBool("relax-logical-pointer")
	cli.RelaxBlockLayout, _ = f.GetBool("relax-block-layout")
	cli.UniformBufferStandardLayout, _ = f.GetBool("uniform-buffer-standard-layout")
	cli.OutputDir, _ = f.GetString("output-dir")
	cli.ManifestFile, _ = f.GetString("manifest-file")
	cli.DenyWarnings, _ = f.GetBool("deny-warnings")
	cli.RebuildBackend, _ = f.GetBool("rebuild-backend")
	cli.AutoInstallToolchain, _ = f.GetBool("auto-install-toolchain")
	cli.ForceLockfileDowngrade, _ = f.GetBool("force-lockfile-downgrade")
	cli.ClearTarget, _ = f.GetBool("clear-target")
	cli.Verbose = verbose()
	if w := cmd.Flags().Lookup("watch"); w != nil {
		cli.Watch, _ = f.GetBool("watch")
	}

	set := make(map[string]bool)
	for _, name := range mergeableFlags {
		if f.Changed(name) {
			set[name] = true
		}
	}
	return cli, set
}
