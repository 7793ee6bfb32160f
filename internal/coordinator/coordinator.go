// Package coordinator implements the Object Coordinator (spec.md §4.4): the
// upload state machine, the existence probe, delete, and rollback. It owns
// the invariants between the metadata row, the staging file, and the
// final-name file for a single object_name.
//
// The write-then-rename durability pattern (write staging bytes, fsync,
// commit state=2, atomic rename, commit state=0) is grounded on the
// teacher's filesystem block store (pkg/payload/store/fs/store.go), which
// already writes to a ".tmp" sibling and renames into place for atomicity;
// this package generalizes that same pattern across an explicit metadata
// state machine instead of a single atomic write.
package coordinator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ericlee/eoss/internal/eosserrors"
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/internal/mds"
)

// Existence is the five-outcome result of a probe (spec.md §4.4.1).
type Existence int

const (
	Absent Existence = iota
	Present
	Init
	Staged
	Lost
)

func (e Existence) String() string {
	switch e {
	case Absent:
		return "ABSENT"
	case Present:
		return "PRESENT"
	case Init:
		return "INIT"
	case Staged:
		return "STAGED"
	case Lost:
		return "LOST"
	default:
		return fmt.Sprintf("Existence(%d)", int(e))
	}
}

// Sentinel errors distinguishing why a PUT/DELETE was rejected without
// entering the state machine. The request glue maps each to its own
// status code (spec.md §6).
var (
	ErrObjectAbsent      = errors.New("object does not exist")
	ErrObjectInitialized = errors.New("object initialized only")
	ErrObjectStaged      = errors.New("object saved not closed")
	ErrObjectLost        = errors.New("object closed but not present in storage")
)

const (
	stateClosed = 0
	stateInit   = 1
	stateStaged = 2
)

// Coordinator operates on objects rooted at storagePath, using pool for
// every metadata mutation. It is safe for concurrent use across distinct
// object_names; callers are responsible for holding the exclusive lock
// (internal/lock) for the duration of a Put or Delete, and at least a
// shared lock around a CheckExists/read.
type Coordinator struct {
	pool        *mds.Pool
	storagePath string
	log         *logger.Logger
}

// New returns a Coordinator writing final and staging files under
// storagePath (STORAGE_PATH).
func New(pool *mds.Pool, storagePath string) *Coordinator {
	return &Coordinator{pool: pool, storagePath: storagePath}
}

// SetLogger attaches the object_client.log sink (spec.md §6's "Persisted
// layout") that Put/Delete log to at the start and at the outcome of each
// operation, mirroring the
// original's object_client.py per-operation log lines. A nil logger (the
// default) disables this logging.
func (c *Coordinator) SetLogger(log *logger.Logger) {
	c.log = log
}

// FinalPath returns the on-disk path of the closed object's bytes.
func (c *Coordinator) FinalPath(objectName string) string {
	return filepath.Join(c.storagePath, objectName)
}

// StagingPath returns the on-disk path of the object's in-progress upload.
func (c *Coordinator) StagingPath(objectName string) string {
	return c.FinalPath(objectName) + ".temp"
}

func (c *Coordinator) table() string { return c.pool.Table() }

// CheckExists implements the existence probe (spec.md §4.4.1).
func (c *Coordinator) CheckExists(objectName string) (Existence, error) {
	s, err := c.pool.NewSession()
	if err != nil {
		return Absent, err
	}
	defer s.Close()

	rows, err := s.Query(
		fmt.Sprintf("SELECT state FROM %s WHERE id = ?", c.table()),
		objectName,
	)
	if err != nil {
		return Absent, err
	}
	if len(rows) == 0 {
		return Absent, nil
	}

	state, ok := asInt64(rows[0]["state"])
	if !ok {
		return Absent, eosserrors.NewInternalError(nil, "row has non-numeric state")
	}

	switch state {
	case stateInit:
		return Init, nil
	case stateStaged:
		return Staged, nil
	case stateClosed:
		if _, statErr := os.Stat(c.FinalPath(objectName)); statErr == nil {
			return Present, nil
		} else if os.IsNotExist(statErr) {
			return Lost, nil
		} else {
			return Absent, eosserrors.NewInternalError(statErr, "stat final file")
		}
	default:
		return Absent, eosserrors.NewInternalError(nil, fmt.Sprintf("row has unknown state %d", state))
	}
}

// Put runs the upload state machine (spec.md §4.4.2) for objectName,
// persisting body as its final bytes. Precondition: caller holds the
// exclusive lock for objectName. Returns ErrObjectInitialized,
// ErrObjectStaged, or ErrObjectLost without mutating anything if the
// object is not in a state that accepts a write; any failure from step
// (A) onward triggers Rollback and returns its outcome as an
// *eosserrors.Error with code ErrRollbackOk or ErrRollbackPartial.
func (c *Coordinator) Put(objectName, filename, version string, body []byte) error {
	if c.log != nil {
		c.log.Info("put started", "object_name", objectName, "filename", filename, "version", version, "size", len(body))
	}

	existence, err := c.CheckExists(objectName)
	if err != nil {
		return err
	}
	switch existence {
	case Init:
		c.logRejected(objectName, existence)
		return ErrObjectInitialized
	case Staged:
		c.logRejected(objectName, existence)
		return ErrObjectStaged
	case Lost:
		c.logRejected(objectName, existence)
		return ErrObjectLost
	}

	// (A) insert a fresh row, or reset an existing PRESENT row, to state=1.
	if err := c.stepInsertOrResetInit(objectName, filename, version, existence == Present); err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	// (B) write the staging file and fsync it before any further commit.
	stagingPath := c.StagingPath(objectName)
	if err := writeAndSync(stagingPath, body); err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	// (C) mark staged and commit, only after (B)'s fsync succeeded.
	if err := c.stepMarkStaged(objectName); err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	// (D) atomic rename into the final name.
	finalPath := c.FinalPath(objectName)
	if err := os.Rename(stagingPath, finalPath); err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	// (E) record size/timestamp and close the row.
	if err := c.stepClose(objectName, info.Size()); err != nil {
		return c.logPutFailed(objectName, c.rollback(objectName, err))
	}

	if c.log != nil {
		c.log.Info("put closed", "object_name", objectName, "size", info.Size())
	}
	return nil
}

func (c *Coordinator) logRejected(objectName string, existence Existence) {
	if c.log != nil {
		c.log.Warn("operation rejected", "object_name", objectName, "existence", existence.String())
	}
}

func (c *Coordinator) logPutFailed(objectName string, rollbackErr error) error {
	if c.log != nil {
		c.log.Exception("put failed, rolled back", rollbackErr, "object_name", objectName)
	}
	return rollbackErr
}

func (c *Coordinator) stepInsertOrResetInit(objectName, filename, version string, isReset bool) error {
	s, err := c.pool.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if isReset {
		err = s.Exec(
			fmt.Sprintf("UPDATE %s SET size = NULL, timestamp = NULL, state = ? WHERE id = ?", c.table()),
			stateInit, objectName,
		)
	} else {
		err = s.Exec(
			fmt.Sprintf("INSERT INTO %s (id, filename, version, size, timestamp, state) VALUES (?, ?, ?, NULL, NULL, ?)", c.table()),
			objectName, filename, nullableString(version), stateInit,
		)
	}
	if err != nil {
		return err
	}
	return s.Commit()
}

func (c *Coordinator) stepMarkStaged(objectName string) error {
	s, err := c.pool.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Exec(
		fmt.Sprintf("UPDATE %s SET state = ? WHERE id = ?", c.table()),
		stateStaged, objectName,
	); err != nil {
		return err
	}
	return s.Commit()
}

func (c *Coordinator) stepClose(objectName string, size int64) error {
	s, err := c.pool.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Exec(
		fmt.Sprintf("UPDATE %s SET size = ?, timestamp = ?, state = ? WHERE id = ?", c.table()),
		size, time.Now().Unix(), stateClosed, objectName,
	); err != nil {
		return err
	}
	return s.Commit()
}

// rollback implements spec.md §4.4.3. It never returns a plain error: the
// caller always receives either an ErrRollbackOk or ErrRollbackPartial
// eosserrors.Error wrapping cause.
func (c *Coordinator) rollback(objectName string, cause error) error {
	failed := false

	if err := removeIfExists(c.FinalPath(objectName)); err != nil {
		failed = true
	}
	if err := removeIfExists(c.StagingPath(objectName)); err != nil {
		failed = true
	}

	s, err := c.pool.NewSession()
	if err != nil {
		failed = true
	} else {
		if execErr := s.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.table()), objectName); execErr != nil {
			failed = true
		} else if commitErr := s.Commit(); commitErr != nil {
			failed = true
		}
		s.Close()
	}

	if failed {
		return eosserrors.NewRollbackPartialError(cause)
	}
	return eosserrors.NewRollbackOkError(cause)
}

// Delete implements spec.md §4.4.4. Precondition: caller holds the
// exclusive lock for objectName. There is no rollback on partial failure;
// the first failing step surfaces directly to the caller.
func (c *Coordinator) Delete(objectName string) error {
	if c.log != nil {
		c.log.Info("delete started", "object_name", objectName)
	}

	existence, err := c.CheckExists(objectName)
	if err != nil {
		return err
	}
	switch existence {
	case Absent:
		c.logRejected(objectName, existence)
		return ErrObjectAbsent
	case Init:
		c.logRejected(objectName, existence)
		return ErrObjectInitialized
	case Staged:
		c.logRejected(objectName, existence)
		return ErrObjectStaged
	case Lost:
		c.logRejected(objectName, existence)
		return ErrObjectLost
	}

	if err := os.Remove(c.FinalPath(objectName)); err != nil {
		wrapped := eosserrors.NewInternalError(err, "unlink final file")
		if c.log != nil {
			c.log.Exception("delete failed", wrapped, "object_name", objectName)
		}
		return wrapped
	}

	s, err := c.pool.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.table()), objectName); err != nil {
		if c.log != nil {
			c.log.Exception("delete failed", err, "object_name", objectName)
		}
		return err
	}
	if err := s.Commit(); err != nil {
		if c.log != nil {
			c.log.Exception("delete failed", err, "object_name", objectName)
		}
		return err
	}

	if c.log != nil {
		c.log.Info("delete done", "object_name", objectName)
	}
	return nil
}

func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
