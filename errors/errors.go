// Package errors provides error handling for kernelbridge.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints for degraded kernel connectivity
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoKernel) {
//	    // degrade to empty completions
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Error aggregation
var (
	CombineErrors = crdb.CombineErrors
	Join          = crdb.Join
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for kernel connectivity.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNoKernel indicates no kernel is associated with a notebook
	ErrNoKernel = New("no kernel for notebook")

	// ErrNoActiveSession indicates a kernel exists but has no live session
	ErrNoActiveSession = New("kernel has no active session")

	// ErrSessionDisposed indicates the session was disposed mid-operation
	ErrSessionDisposed = New("session disposed")

	// ErrRawConnectionBroken indicates the raw kernel connection is no
	// longer usable and the caller should reconnect
	ErrRawConnectionBroken = New("raw kernel connection is broken")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")
)

// IsNoKernelError checks if an error is or wraps ErrNoKernel.
func IsNoKernelError(err error) bool {
	return err != nil && Is(err, ErrNoKernel)
}

// IsRawConnectionBrokenError checks if an error is or wraps ErrRawConnectionBroken.
func IsRawConnectionBrokenError(err error) bool {
	return err != nil && Is(err, ErrRawConnectionBroken)
}
