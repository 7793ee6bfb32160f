// Package commands implements EOSS's CLI subcommands, grounded on the
// teacher's cmd/dittofs/commands package: a cobra root command carrying a
// single persistent --config flag, with each subcommand in its own file.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "eoss",
	Short: "EOSS - single-node HTTP object storage service",
	Long: `EOSS stores opaque byte blobs addressed by filename and an optional
version tag, on a local filesystem, with a transactional metadata catalog
tracking upload lifecycle state.

Use "eoss [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: built-in defaults)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}
