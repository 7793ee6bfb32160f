package lock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/eosserrors"
)

func TestSharedLocksCoexist(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireShared("obj-1")
	require.NoError(t, err)
	defer m.Release(h1)

	h2, err := m.AcquireShared("obj-1")
	require.NoError(t, err)
	defer m.Release(h2)
}

func TestExclusiveBlocksShared(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireExclusive("obj-1")
	require.NoError(t, err)
	defer m.Release(h1)

	_, err = m.AcquireShared("obj-1")
	require.Error(t, err)

	e, ok := eosserrors.AsError(err)
	require.True(t, ok)
	require.Equal(t, eosserrors.ErrLockBusy, e.Code)
}

func TestExclusiveBlocksExclusive(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireExclusive("obj-1")
	require.NoError(t, err)
	defer m.Release(h1)

	_, err = m.AcquireExclusive("obj-1")
	require.Error(t, err)
}

func TestSharedBlocksExclusive(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireShared("obj-1")
	require.NoError(t, err)
	defer m.Release(h1)

	_, err = m.AcquireExclusive("obj-1")
	require.Error(t, err)
}

func TestReleaseAllowsReacquisition(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireExclusive("obj-1")
	require.NoError(t, err)
	require.NoError(t, m.Release(h1))

	h2, err := m.AcquireExclusive("obj-1")
	require.NoError(t, err)
	require.NoError(t, m.Release(h2))
}

func TestDistinctObjectsDoNotConflict(t *testing.T) {
	m := NewManager(t.TempDir())

	h1, err := m.AcquireExclusive("obj-1")
	require.NoError(t, err)
	defer m.Release(h1)

	h2, err := m.AcquireExclusive("obj-2")
	require.NoError(t, err)
	defer m.Release(h2)
}
