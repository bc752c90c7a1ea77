package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/proc"
	"github.com/prismforge/gpubuild/internal/toolchain"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pinned toolchain and build the codegen backend",
	RunE:  runInstall,
}

func init() {
	addBuildFlags(installCmd)
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cli, set := cliOptions(cmd)
	cfg, err := config.Resolve(cli, set, cli.ShaderCrate)
	if err != nil {
		return err
	}
	artifact, channel, err := ensureBackend(cmd.Context(), cfg, cacheDir())
	if err != nil {
		return err
	}
	statusf("backend ready at %s (toolchain %s)", artifact.Path, channel)
	return nil
}

// ensureBackend runs the install half of the pipeline: source resolution,
// toolchain presence, backend build-or-reuse, and target-spec publishing.
// Returns the artifact and the resolved toolchain channel.
func ensureBackend(ctx context.Context, cfg config.BuildConfig, cacheRoot string) (backend.Artifact, string, error) {
	runner := proc.Exec{Verbose: cfg.Verbose}
	cache := &backend.Cache{Root: cacheRoot, Runner: runner, Verbose: cfg.Verbose}

	source, err := backend.SourceFor(ctx, runner, cfg.ShaderCrate, cfg.BackendSource, cfg.BackendVersion)
	if err != nil {
		return backend.Artifact{}, "", err
	}
	if err := cache.PrepareCheckout(source); err != nil {
		return backend.Artifact{}, "", err
	}

	channel, err := resolveChannel(ctx, runner, cache.CheckoutDir(source))
	if err != nil {
		return backend.Artifact{}, "", err
	}

	installer := &toolchain.Installer{
		Runner:      runner,
		Consent:     askForConfirmation,
		AutoInstall: cfg.AutoInstallToolchain,
	}
	if err := installer.Ensure(ctx, channel); err != nil {
		return backend.Artifact{}, "", err
	}

	artifact, err := cache.Ensure(ctx, backend.Spec{
		Source:      source,
		Toolchain:   channel,
		Target:      cfg.Target,
		Rebuild:     cfg.RebuildBackend,
		ClearTarget: cfg.ClearTarget,
	})
	if err != nil {
		return backend.Artifact{}, "", err
	}

	if err := backend.WriteTargetSpecs(targetSpecDir(cacheRoot), config.Targets(), cfg.RebuildBackend); err != nil {
		return backend.Artifact{}, "", err
	}
	return artifact, channel, nil
}

// resolveChannel resolves the checkout's pinned channel, memoized in a file
// beside the checkout so repeat builds skip the metadata query.
func resolveChannel(ctx context.Context, runner proc.Runner, checkoutDir string) (string, error) {
	memo := filepath.Join(checkoutDir, ".toolchain-channel")
	if data, err := os.ReadFile(memo); err == nil {
		if channel := strings.TrimSpace(string(data)); channel != "" {
			return channel, nil
		}
	}
	channel, err := toolchain.ResolveChannel(ctx, runner, checkoutDir)
	if err != nil {
		return "", err
	}
	_ = os.WriteFile(memo, []byte(channel+"\n"), 0o644)
	return channel, nil
}
