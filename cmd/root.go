// Package cmd is the CLI surface: flag parsing, interactive prompts, and the
// wiring of the pipeline stages. Everything below it is library code that
// never reads flags or renders prompts itself.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/builder"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/lockfile"
	"github.com/prismforge/gpubuild/internal/toolchain"
)

var rootCmd = &cobra.Command{
	Use:   "gpubuild",
	Short: "Compile Rust shader crates to SPIR-V",
	Long: "gpubuild manages installations of the pinned nightly toolchain and the\n" +
		"rustc_codegen_spirv backend, then drives cargo with that backend to\n" +
		"cross-compile shader crates into SPIR-V modules plus an entry-point manifest.",
	SilenceUsage: true,
}

// Exit codes per error category. Success is 0.
const (
	exitCompile = 1
	exitConfig  = 2
	exitInstall = 3
	exitCache   = 4
)

// Execute runs the CLI under a signal-cancelled context. An interrupt
// cancels every command's context, which in turn kills any child process
// group still running.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidOption):
		return exitConfig
	case errors.Is(err, toolchain.ErrDeclined), errors.Is(err, toolchain.ErrInstall):
		return exitInstall
	case errors.Is(err, backend.ErrCache), errors.Is(err, lockfile.ErrLockfile):
		return exitCache
	case errors.Is(err, builder.ErrCompile):
		return exitCompile
	default:
		return exitCompile
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("cache-dir", "", "cache directory (default platform cache dir + /gpubuild)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetDefault("cache_dir", "")
	viper.SetEnvPrefix("GPUBUILD")
	viper.AutomaticEnv()
}

// cacheDir resolves the cache root once per invocation; components receive
// it explicitly.
func cacheDir() string {
	if dir := viper.GetString("cache_dir"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ".gpubuild-cache"
	}
	return filepath.Join(base, "gpubuild")
}

func targetSpecDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "target-specs")
}

func verbose() bool {
	return viper.GetBool("verbose")
}
