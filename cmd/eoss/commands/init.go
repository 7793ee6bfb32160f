package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/internal/config"
)

var initPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file with built-in defaults",
	Long: `Write a YAML configuration file populated with EOSS's built-in
defaults (spec.md §6's configuration table) to the given path, ready to
be edited.

Examples:
  eoss init --config /etc/eoss/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "config", "eoss.yaml", "path to write the configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := config.Save(cfg, initPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", initPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize storage and metadata paths")
	fmt.Println("  2. Bootstrap the metadata store: eoss bootstrap --config " + initPath)
	fmt.Println("  3. Start the server: eoss start --config " + initPath)

	return nil
}
