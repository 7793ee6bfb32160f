package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/internal/config"
	"github.com/ericlee/eoss/internal/coordinator"
	"github.com/ericlee/eoss/internal/httpapi"
	"github.com/ericlee/eoss/internal/lock"
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/internal/mds"
	"github.com/ericlee/eoss/internal/sweep"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the EOSS server in the foreground",
	Long: `Start the EOSS HTTP server: run the crash-recovery sweep, then serve
PUT/GET/HEAD/DELETE on /eoss/v1/object/{filename} and GET /eoss/v1/stats
until interrupted (spec.md §4.5, §6).

Examples:
  eoss start --config /etc/eoss/config.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLog, err := logger.New(cfg.LoggingPath, "eoss.log", "eoss", logger.Config{
		Level: cfg.LoggingLevel, Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application logger: %w", err)
	}
	defer appLog.Close()

	accessLog, err := logger.New(cfg.LoggingPath, "access.log", "access", logger.Config{
		Level: "INFO", Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize access logger: %w", err)
	}
	defer accessLog.Close()

	mdsLog, err := logger.New(cfg.LoggingPath, "mds_client.log", "mds_client", logger.Config{
		Level: cfg.LoggingLevel, Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata-driver logger: %w", err)
	}
	defer mdsLog.Close()

	objectLog, err := logger.New(cfg.LoggingPath, "object_client.log", "object_client", logger.Config{
		Level: cfg.LoggingLevel, Format: cfg.LoggingFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize object-coordinator logger: %w", err)
	}
	defer objectLog.Close()

	pool, err := mds.Open(cfg.MetadataDBPath, cfg.MetadataDBTable)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer pool.Close()
	pool.SetLogger(mdsLog)

	appLog.Info("running crash-recovery sweep")
	sweepResult, err := sweep.Run(pool, cfg.StoragePath, appLog)
	if err != nil {
		return fmt.Errorf("crash-recovery sweep failed: %w", err)
	}
	appLog.Info("crash-recovery sweep complete", "rows_removed", sweepResult.RowsRemoved)

	locks := lock.NewManager(cfg.ObjectLockPath)
	coord := coordinator.New(pool, cfg.StoragePath)
	coord.SetLogger(objectLog)
	srv := httpapi.NewServer(coord, locks, cfg.VersionSalt, cfg.SafeMode, accessLog, appLog)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.NewRouter(),
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		appLog.Info("HTTP API listening", "addr", cfg.HTTPAddr, "safemode", cfg.SafeMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	if metricsServer != nil {
		go func() {
			appLog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Exception("metrics server error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		appLog.Info("shutdown signal received, draining in-flight requests")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLog.Exception("error during graceful shutdown", err)
		}
		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}

		if err := <-serverDone; err != nil {
			appLog.Exception("server exited with error", err)
			return err
		}
		appLog.Info("server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			appLog.Exception("server error", err)
			return err
		}
		appLog.Info("server stopped")
	}

	return nil
}
