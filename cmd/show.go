package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/proc"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display tool state and supported option values",
}

var showCacheCmd = &cobra.Command{
	Use:   "cache-directory",
	Short: "Print the cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cacheDir())
		return nil
	},
}

var showSourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Print the backend source a shader crate resolves to",
	RunE: func(cmd *cobra.Command, args []string) error {
		crate, _ := cmd.Flags().GetString("shader-crate")
		runner := proc.Exec{Verbose: verbose()}
		source, err := backend.Detect(cmd.Context(), runner, crate)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), source.String())
		return nil
	},
}

var showChannelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Print the toolchain channel the backend pins for a shader crate",
	RunE: func(cmd *cobra.Command, args []string) error {
		crate, _ := cmd.Flags().GetString("shader-crate")
		runner := proc.Exec{Verbose: verbose()}
		cache := &backend.Cache{Root: cacheDir(), Runner: runner, Verbose: verbose()}

		source, err := backend.SourceFor(cmd.Context(), runner, crate, "", "")
		if err != nil {
			return err
		}
		if err := cache.PrepareCheckout(source); err != nil {
			return err
		}
		channel, err := resolveChannel(cmd.Context(), runner, cache.CheckoutDir(source))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), channel)
		return nil
	},
}

var showCapabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List the SPIR-V capabilities accepted by --capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.CapabilityNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var showTargetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the SPIR-V target triples accepted by --target",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, triple := range config.Targets() {
			fmt.Fprintln(cmd.OutOrStdout(), triple)
		}
		return nil
	},
}

func init() {
	showSourceCmd.Flags().String("shader-crate", ".", "directory of the shader crate to inspect")
	showChannelCmd.Flags().String("shader-crate", ".", "directory of the shader crate to inspect")
	showCmd.AddCommand(showCacheCmd, showSourceCmd, showChannelCmd, showCapabilitiesCmd, showTargetsCmd)
	rootCmd.AddCommand(showCmd)
}
