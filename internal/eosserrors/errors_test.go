package eosserrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewExecError(cause, "INSERT INTO metadata VALUES (?)")

	require.Contains(t, err.Error(), "ExecError")
	require.Contains(t, err.Error(), "disk full")
}

func TestAsErrorUnwraps(t *testing.T) {
	err := NewLockBusyError("abc123")
	wrapped := fmt.Errorf("put failed: %w", err)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrLockBusy, e.Code)
}
