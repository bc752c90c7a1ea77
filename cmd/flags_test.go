package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/builder"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/lockfile"
	"github.com/prismforge/gpubuild/internal/toolchain"
)

func TestCliOptionsChangedSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addBuildFlags(cmd)

	if err := cmd.Flags().Set("target", "spirv-unknown-vulkan1.0"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("multimodule", "true"); err != nil {
		t.Fatal(err)
	}

	cli, set := cliOptions(cmd)
	if cli.Target != "spirv-unknown-vulkan1.0" {
		t.Errorf("Target = %q", cli.Target)
	}
	if !cli.MultiModule {
		t.Error("MultiModule not read from flag")
	}
	if !set["target"] || !set["multimodule"] {
		t.Errorf("changed set missing supplied flags: %v", set)
	}
	if set["release"] {
		t.Error("unsupplied flag reported as changed")
	}
}

func TestMergeableFlagsAllRegistered(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addBuildFlags(cmd)
	for _, name := range mergeableFlags {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("mergeable flag %q is not registered", name)
		}
	}
}

func TestFlagDefaultsMatchConfigDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addBuildFlags(cmd)
	cli, _ := cliOptions(cmd)
	def := config.Defaults()

	if cli.Target != def.Target {
		t.Errorf("target flag default %q != config default %q", cli.Target, def.Target)
	}
	if cli.Release != def.Release {
		t.Errorf("release flag default %v != config default %v", cli.Release, def.Release)
	}
	if cli.OutputDir != def.OutputDir {
		t.Errorf("output-dir flag default %q != config default %q", cli.OutputDir, def.OutputDir)
	}
	if cli.ClearTarget != def.ClearTarget {
		t.Errorf("clear-target flag default %v != config default %v", cli.ClearTarget, def.ClearTarget)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", config.ErrInvalidOption), exitConfig},
		{fmt.Errorf("wrapped: %w", toolchain.ErrDeclined), exitInstall},
		{fmt.Errorf("wrapped: %w", toolchain.ErrInstall), exitInstall},
		{fmt.Errorf("wrapped: %w", backend.ErrCache), exitCache},
		{fmt.Errorf("wrapped: %w", lockfile.ErrLockfile), exitCache},
		{fmt.Errorf("wrapped: %w", builder.ErrCompile), exitCompile},
		{builder.ErrDenyWarnings, exitCompile},
		{errors.New("anything else"), exitCompile},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
