// Package sweep implements the Crash-Recovery Sweeper (spec.md §4.5): a
// startup pass that reconciles partial uploads left behind by a crash
// mid-PUT, run once before the HTTP server accepts connections.
package sweep

import (
	"fmt"
	"os"

	"github.com/ericlee/eoss/internal/coordinator"
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/internal/mds"
)

// Result reports what the sweep found and cleaned up.
type Result struct {
	RowsRemoved int
}

// Run selects every row with state != 0, unlinks any final or staging
// file it left behind, and deletes the row. Missing files are not errors
// (spec.md §4.5 step 2). After Run returns successfully, invariant §3.5
// holds: the sweeper never repairs LOST rows (state=0 with no file); that
// is an operator tool's job, not this service's.
func Run(pool *mds.Pool, storagePath string, log *logger.Logger) (Result, error) {
	s, err := pool.NewSession()
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	rows, err := s.Query(fmt.Sprintf("SELECT id FROM %s WHERE state != 0", pool.Table()))
	if err != nil {
		return Result{}, err
	}

	c := coordinator.New(pool, storagePath)
	removed := 0
	for _, row := range rows {
		id, ok := row["id"].(string)
		if !ok {
			continue
		}

		if err := removeIfExists(c.FinalPath(id)); err != nil && log != nil {
			log.Warn("sweep: failed to unlink final file", "object_name", id, "error", err)
		}
		if err := removeIfExists(c.StagingPath(id)); err != nil && log != nil {
			log.Warn("sweep: failed to unlink staging file", "object_name", id, "error", err)
		}

		if err := s.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", pool.Table()), id); err != nil {
			return Result{}, err
		}
		removed++
	}

	if err := s.Commit(); err != nil {
		return Result{}, err
	}

	if log != nil && removed > 0 {
		log.Info("sweep: reconciled crash remnants", "rows_removed", removed)
	}

	return Result{RowsRemoved: removed}, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return err
}
