// Package lock implements the Object Lock Manager (spec.md §4.3):
// per-object_name advisory locks with shared and exclusive modes, acquired
// non-blocking against a sentinel file under OBJECT_LOCK_PATH.
//
// Locking is delegated to github.com/gofrs/flock, which wraps the
// platform's OS advisory file-lock syscall (flock(2) on Linux/macOS,
// LockFileEx on Windows). This is adopted from the wider example corpus
// (cs3org/reva's go.mod) rather than hand-rolled syscall.Flock, since the
// teacher's own lock manager (pkg/metadata/lock) is an in-process byte-range
// lock table, not an OS-file-backed advisory lock — the one piece of
// SPEC_FULL.md's domain stack the teacher itself doesn't cover.
package lock

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ericlee/eoss/internal/eosserrors"
)

// Manager acquires and releases per-object advisory locks.
type Manager struct {
	dir string
}

// NewManager returns a Manager whose sentinel files live under dir
// (OBJECT_LOCK_PATH).
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Handle is a held lock. Release it exactly once.
type Handle struct {
	fl         *flock.Flock
	objectName string
	exclusive  bool
}

// ObjectName returns the object_name this handle locks.
func (h *Handle) ObjectName() string { return h.objectName }

// Exclusive reports whether this handle holds an exclusive (write) lock.
func (h *Handle) Exclusive() bool { return h.exclusive }

func (m *Manager) sentinelPath(objectName string) string {
	return filepath.Join(m.dir, objectName+".lock")
}

// AcquireShared takes a non-blocking shared lock on objectName. Multiple
// shared holders may coexist; an exclusive holder blocks every shared
// acquisition attempt. Fails immediately with eosserrors.ErrLockBusy on
// contention — there is no waiting or retry (spec.md §4.3, §5).
func (m *Manager) AcquireShared(objectName string) (*Handle, error) {
	fl := flock.New(m.sentinelPath(objectName))

	locked, err := fl.TryRLock()
	if err != nil {
		return nil, eosserrors.NewInternalError(err, "acquire shared lock")
	}
	if !locked {
		return nil, eosserrors.NewLockBusyError(objectName)
	}

	return &Handle{fl: fl, objectName: objectName, exclusive: false}, nil
}

// AcquireExclusive takes a non-blocking exclusive lock on objectName. It
// conflicts with any other shared or exclusive holder. Fails immediately
// with eosserrors.ErrLockBusy on contention.
func (m *Manager) AcquireExclusive(objectName string) (*Handle, error) {
	fl := flock.New(m.sentinelPath(objectName))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, eosserrors.NewInternalError(err, "acquire exclusive lock")
	}
	if !locked {
		return nil, eosserrors.NewLockBusyError(objectName)
	}

	return &Handle{fl: fl, objectName: objectName, exclusive: true}, nil
}

// Release drops the lock and closes the sentinel file descriptor. Sentinel
// files themselves are never removed: they are harmless to leave behind
// and external tooling may rely on their continued existence (spec.md
// §4.3, §5).
func (m *Manager) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	return h.fl.Unlock()
}
