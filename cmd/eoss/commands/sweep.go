package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/internal/config"
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/internal/mds"
	"github.com/ericlee/eoss/internal/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the crash-recovery sweep once, without starting the server",
	Long: `Scan the metadata table for rows left in state INIT or STAGED by a
crash, remove their final/staging files and rows, then exit (spec.md
§4.5). "eoss start" always runs this automatically before accepting
connections; this subcommand exists for operators who want to run it
by hand, e.g. after restoring STORAGE_PATH from a backup.

Examples:
  eoss sweep --config /etc/eoss/config.yaml`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LoggingPath, "eoss.log", "eoss", logger.Config{
		Level: cfg.LoggingLevel, Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	mdsLog, err := logger.New(cfg.LoggingPath, "mds_client.log", "mds_client", logger.Config{
		Level: cfg.LoggingLevel, Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata-driver logger: %w", err)
	}
	defer mdsLog.Close()

	pool, err := mds.Open(cfg.MetadataDBPath, cfg.MetadataDBTable)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer pool.Close()
	pool.SetLogger(mdsLog)

	result, err := sweep.Run(pool, cfg.StoragePath, log)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Sweep complete: %d stale row(s) removed\n", result.RowsRemoved)
	return nil
}
