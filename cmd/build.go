package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/builder"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/lockfile"
	"github.com/prismforge/gpubuild/internal/proc"
	"github.com/prismforge/gpubuild/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile a shader crate to SPIR-V modules and a manifest",
	RunE:  runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().BoolP("watch", "w", false, "rebuild whenever the shader crate changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cli, set := cliOptions(cmd)
	cfg, err := config.Resolve(cli, set, cli.ShaderCrate)
	if err != nil {
		return err
	}

	cacheRoot := cacheDir()
	artifact, channel, err := ensureBackend(cmd.Context(), cfg, cacheRoot)
	if err != nil {
		return err
	}

	runner := proc.Exec{Verbose: cfg.Verbose}
	patch, err := lockfile.Reconcile(cmd.Context(), runner, cfg.ShaderCrate, channel, cfg.ForceLockfileDowngrade)
	if err != nil {
		return err
	}
	defer func() {
		if err := patch.Restore(); err != nil {
			warnf("failed to restore patched lockfiles: %v", err)
		}
	}()
	if patch.Advice != "" {
		warnf("%s", patch.Advice)
	}

	b := &builder.Builder{Runner: runner, Verbose: cfg.Verbose}
	specDir := targetSpecDir(cacheRoot)

	if cfg.Watch {
		return watchBuild(cmd, cfg, b, artifact, channel, specDir)
	}

	result, err := b.Run(cmd.Context(), cfg, artifact, channel, specDir)
	if err != nil {
		return err
	}
	statusf("compiled %d module(s), manifest at %s", len(result.Modules), result.ManifestPath)
	return nil
}

// watchBuild runs the build loop until interrupted. Per-iteration compile
// failures are reported and watching continues; the command itself exits 0
// on interrupt. The command context is already signal-cancelled by Execute.
func watchBuild(cmd *cobra.Command, cfg config.BuildConfig, b *builder.Builder, artifact backend.Artifact, channel, specDir string) error {
	ctx := cmd.Context()

	w, err := watch.New(cfg.ShaderCrate, filepath.Base(cfg.OutputDir))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	statusf("watching %s for changes (ctrl-c to stop)", cfg.ShaderCrate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.WatchLoop(ctx, cfg, artifact, channel, specDir, w.Batches, func(result builder.Result, err error) {
			if err != nil {
				warnf("build failed: %v", err)
				return
			}
			statusf("compiled %d module(s), manifest at %s", len(result.Modules), result.ManifestPath)
		})
	}()

	<-ctx.Done()
	w.Stop()
	<-done
	return nil
}
