package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/internal/config"
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/internal/mds"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Prepare a fresh install: storage/lock/log directories and the metadata table",
	Long: `Create STORAGE_PATH, OBJECT_LOCK_PATH, LOGGING_PATH and the
directory holding METADATA_DB_PATH, then create the metadata table
named by METADATA_DB_TABLE if it doesn't already exist. Run once
before the first "eoss start" on a new install.

Examples:
  eoss bootstrap --config /etc/eoss/config.yaml`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dirs := []string{cfg.StoragePath, cfg.ObjectLockPath, cfg.LoggingPath, filepath.Dir(cfg.MetadataDBPath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

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

	s, err := pool.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()

	if err := s.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id STRING, filename STRING, version STRING, size INTEGER, timestamp INTEGER, state INTEGER)",
		cfg.MetadataDBTable,
	)); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	if err := s.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema creation: %w", err)
	}

	fmt.Printf("Metadata table %q ready at %s\n", cfg.MetadataDBTable, cfg.MetadataDBPath)
	return nil
}
