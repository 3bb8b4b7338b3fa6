package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elemtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "elemtree",
		Short: "Build and inspect retained element trees",
		Long: `elemtree replays tree descriptions into element snapshots.

A description is a JSON document of nested nodes. elemtree builds it
into a flat, id-addressed snapshot using push/pop scoping and prints or
serves the diagnostic listing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", ".", "Directory or file containing elemtree.json")

	rootCmd.AddCommand(
		dumpCmd(),
		serveCmd(),
		versionCmd(),
	)

	return rootCmd
}
