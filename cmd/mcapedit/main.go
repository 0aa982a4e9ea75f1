// Package main provides the mcapedit CLI for inspecting and trimming MCAP
// recordings.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mcapedit: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "mcapedit",
		Short:         "Inspect MCAP recordings and export topic and time subsets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if flags.color && flags.noColor {
				return fmt.Errorf("--color and --no-color cannot be used together")
			}
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	pflags := rootCmd.PersistentFlags()
	pflags.StringVarP(&flags.config, "config", "c", "", "configuration file path (env: MCAPEDIT_CONFIG)")
	pflags.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	pflags.StringVar(&flags.logFormat, "log-format", "", "log format: console or json")
	pflags.StringVar(&flags.summary, "summary", "", "how statistics are read: index, auto, or scan")
	pflags.BoolVar(&flags.color, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	pflags.BoolVar(&flags.noColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	rootCmd.AddCommand(newListCmd(ctx))
	rootCmd.AddCommand(newInfoCmd(ctx))
	rootCmd.AddCommand(newTopicsCmd(ctx))
	rootCmd.AddCommand(newSchemaCmd(ctx))
	rootCmd.AddCommand(newExportCmd(ctx))
	rootCmd.AddCommand(newConfigCmd(ctx))

	return rootCmd
}
