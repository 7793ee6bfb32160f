package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/mds"
)

func newTestPool(t *testing.T) *mds.Pool {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mds.sql")
	pool, err := mds.Open(dbPath, "metadata")
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	s, err := pool.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Exec(mds.CreateTableStatement(pool.Table())))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	return pool
}

func TestRunRemovesInitRowAndStagingFile(t *testing.T) {
	pool := newTestPool(t)
	storagePath := t.TempDir()

	s, err := pool.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Exec(
		"INSERT INTO metadata (id, filename, version, size, timestamp, state) VALUES (?, ?, NULL, NULL, NULL, 1)",
		"crashed-1", "a.txt",
	))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	stagingPath := filepath.Join(storagePath, "crashed-1.temp")
	require.NoError(t, os.WriteFile(stagingPath, []byte("partial"), 0o644))

	result, err := Run(pool, storagePath, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsRemoved)

	_, err = os.Stat(stagingPath)
	require.True(t, os.IsNotExist(err))

	s2, err := pool.NewSession()
	require.NoError(t, err)
	defer s2.Close()
	rows, err := s2.Query("SELECT id FROM metadata WHERE id = ?", "crashed-1")
	require.NoError(t, err)
	require.Len(t, rows, 0)
}

func TestRunLeavesClosedRowsAlone(t *testing.T) {
	pool := newTestPool(t)
	storagePath := t.TempDir()

	s, err := pool.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Exec(
		"INSERT INTO metadata (id, filename, version, size, timestamp, state) VALUES (?, ?, NULL, 5, 123, 0)",
		"closed-1", "b.txt",
	))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	result, err := Run(pool, storagePath, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.RowsRemoved)

	s2, err := pool.NewSession()
	require.NoError(t, err)
	defer s2.Close()
	rows, err := s2.Query("SELECT id FROM metadata WHERE id = ?", "closed-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRunToleratesMissingFiles(t *testing.T) {
	pool := newTestPool(t)
	storagePath := t.TempDir()

	s, err := pool.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Exec(
		"INSERT INTO metadata (id, filename, version, size, timestamp, state) VALUES (?, ?, NULL, NULL, NULL, 2)",
		"crashed-2", "c.txt",
	))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	result, err := Run(pool, storagePath, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsRemoved)
}
