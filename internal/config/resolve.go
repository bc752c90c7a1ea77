package config

import "strings"

// Resolve merges CLI-supplied options over the crate's manifest metadata over
// built-in defaults, then validates the result. cliSet reports whether a
// given flag was explicitly supplied on the command line; only supplied flags
// participate in precedence. Resolve has no side effects.
func Resolve(cli BuildConfig, cliSet map[string]bool, crateDir string) (BuildConfig, error) {
	meta, err := loadMetadata(crateDir)
	if err != nil {
		return BuildConfig{}, invalidf("shader-crate", "%v", err)
	}

	cfg := Defaults()
	cfg.ShaderCrate = crateDir
	cfg.Watch = cli.Watch
	cfg.Verbose = cli.Verbose

	set := func(name string) bool { return cliSet[name] }

	pickString(&cfg.BackendSource, set("backend-source"), cli.BackendSource, meta.BackendSource)
	pickString(&cfg.BackendVersion, set("backend-version"), cli.BackendVersion, meta.BackendVersion)
	pickString(&cfg.Target, set("target"), cli.Target, meta.Target)
	pickStrings(&cfg.Features, set("features"), cli.Features, meta.Features)
	pickBool(&cfg.Release, set("release"), cli.Release, meta.Release)
	pickBool(&cfg.MultiModule, set("multimodule"), cli.MultiModule, meta.MultiModule)
	pickString(&cfg.SpirvMetadata, set("spirv-metadata"), cli.SpirvMetadata, meta.SpirvMetadata)
	pickStrings(&cfg.Capabilities, set("capabilities"), cli.Capabilities, meta.Capabilities)
	pickStrings(&cfg.Extensions, set("extensions"), cli.Extensions, meta.Extensions)
	pickBool(&cfg.RelaxStructStore, set("relax-struct-store"), cli.RelaxStructStore, meta.RelaxStructStore)
	pickBool(&cfg.RelaxLogicalPointer, set("relax-logical-pointer"), cli.RelaxLogicalPointer, meta.RelaxLogicalPointer)
	pickBool(&cfg.RelaxBlockLayout, set("relax-block-layout"), cli.RelaxBlockLayout, meta.RelaxBlockLayout)
	pickBool(&cfg.UniformBufferStandardLayout, set("uniform-buffer-standard-layout"), cli.UniformBufferStandardLayout, meta.UniformBufferStandardLayout)
	pickString(&cfg.OutputDir, set("output-dir"), cli.OutputDir, meta.OutputDir)
	pickString(&cfg.ManifestFile, set("manifest-file"), cli.ManifestFile, meta.ManifestFile)
	pickBool(&cfg.DenyWarnings, set("deny-warnings"), cli.DenyWarnings, meta.DenyWarnings)
	pickBool(&cfg.RebuildBackend, set("rebuild-backend"), cli.RebuildBackend, meta.RebuildBackend)
	pickBool(&cfg.AutoInstallToolchain, set("auto-install-toolchain"), cli.AutoInstallToolchain, meta.AutoInstallToolchain)
	pickBool(&cfg.ForceLockfileDowngrade, set("force-lockfile-downgrade"), cli.ForceLockfileDowngrade, meta.ForceLockfileDowngrade)
	pickBool(&cfg.ClearTarget, set("clear-target"), cli.ClearTarget, meta.ClearTarget)

	if err := validate(cfg); err != nil {
		return BuildConfig{}, err
	}
	return cfg, nil
}

func pickString(dst *string, cliSet bool, cliVal string, manifest *string) {
	switch {
	case cliSet:
		*dst = cliVal
	case manifest != nil:
		*dst = *manifest
	}
}

func pickBool(dst *bool, cliSet bool, cliVal bool, manifest *bool) {
	switch {
	case cliSet:
		*dst = cliVal
	case manifest != nil:
		*dst = *manifest
	}
}

func pickStrings(dst *[]string, cliSet bool, cliVal []string, manifest []string) {
	switch {
	case cliSet:
		*dst = cliVal
	case manifest != nil:
		*dst = manifest
	}
}

// validate rejects the first invalid option found. Runs before any external
// process is spawned.
func validate(cfg BuildConfig) error {
	if !knownTargets[cfg.Target] {
		return invalidf("target", "unknown target %q", cfg.Target)
	}
	if !knownMetadataLevels[cfg.SpirvMetadata] {
		return invalidf("spirv-metadata", "must be one of none, name-variables, full; got %q", cfg.SpirvMetadata)
	}
	for _, cap := range cfg.Capabilities {
		if !knownCapabilities[cap] {
			return invalidf("capabilities", "unknown capability %q", cap)
		}
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, "SPV_") {
			return invalidf("extensions", "extension %q does not look like a SPIR-V extension name", ext)
		}
	}
	if cfg.OutputDir == "" {
		return invalidf("output-dir", "must not be empty")
	}
	if cfg.ManifestFile == "" || strings.ContainsRune(cfg.ManifestFile, '/') {
		return invalidf("manifest-file", "must be a bare file name, got %q", cfg.ManifestFile)
	}
	if cfg.BackendSource != "" && cfg.BackendVersion == "" {
		return invalidf("backend-version", "required when backend-source is set (a git rev)")
	}
	return nil
}
