// Package eosserrors defines EOSS's error taxonomy (spec.md §7): a fixed
// set of kinds, not Go types, each mapping to exactly one HTTP status code
// in the request glue.
package eosserrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure, independent of its string message.
type Code int

const (
	// ErrConnect indicates the metadata driver could not open a session.
	ErrConnect Code = iota + 1
	// ErrExec indicates a metadata statement failed to execute.
	ErrExec
	// ErrCommit indicates a metadata transaction failed to commit.
	ErrCommit
	// ErrLockBusy indicates non-blocking lock acquisition found contention.
	ErrLockBusy
	// ErrInternal indicates an unexpected I/O or logic failure inside the
	// coordinator.
	ErrInternal
	// ErrRollbackOk indicates a failed PUT was fully rolled back.
	ErrRollbackOk
	// ErrRollbackPartial indicates rollback left some residue behind.
	ErrRollbackPartial
)

func (c Code) String() string {
	switch c {
	case ErrConnect:
		return "ConnectError"
	case ErrExec:
		return "ExecError"
	case ErrCommit:
		return "CommitError"
	case ErrLockBusy:
		return "LockBusy"
	case ErrInternal:
		return "InternalError"
	case ErrRollbackOk:
		return "RollbackOk"
	case ErrRollbackPartial:
		return "RollbackPartial"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the single error type carried through the coordinator and glue.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewConnectError wraps a metadata-driver connection failure.
func NewConnectError(cause error) *Error {
	return newf(ErrConnect, cause, "failed to connect to metadata store")
}

// NewExecError wraps a metadata statement execution failure.
func NewExecError(cause error, statement string) *Error {
	return newf(ErrExec, cause, "failed to execute statement: %s", statement)
}

// NewCommitError wraps a metadata transaction commit failure.
func NewCommitError(cause error) *Error {
	return newf(ErrCommit, cause, "failed to commit metadata transaction")
}

// NewLockBusyError reports non-blocking lock contention on objectName.
func NewLockBusyError(objectName string) *Error {
	return newf(ErrLockBusy, nil, "lock busy for object %s", objectName)
}

// NewInternalError wraps an unexpected coordinator failure.
func NewInternalError(cause error, context string) *Error {
	return newf(ErrInternal, cause, "internal failure: %s", context)
}

// NewRollbackOkError reports a fully successful rollback after a failed PUT.
func NewRollbackOkError(cause error) *Error {
	return newf(ErrRollbackOk, cause, "rollback completed")
}

// NewRollbackPartialError reports a rollback that left residue behind.
func NewRollbackPartialError(cause error) *Error {
	return newf(ErrRollbackPartial, cause, "rollback left residue")
}

// AsError extracts *Error from err, if it is (or wraps) one.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
