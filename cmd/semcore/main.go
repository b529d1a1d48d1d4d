// Command semcore is the CLI front end for the semantic core: it loads a
// crate-seed file, drives the item-tree/def-map/body/inference pipeline
// over every definition, and prints the resulting diagnostics or types.
//
// Subcommands mirror a flat run/repl/watch/check layout, rebuilt on
// spf13/cobra rather than stdlib flag so subcommand help and flag
// parsing come from one library instead of hand-rolled dispatch.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set by ldflags during release builds.
	Version = "dev"

	verbose bool

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func main() {
	root := &cobra.Command{
		Use:     "semcore",
		Short:   "Semantic core CLI",
		Version: Version,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable query-engine trace logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
}
