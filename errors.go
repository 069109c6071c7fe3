// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package sigrelease

import (
	"errors"
	"fmt"
	"syscall"
)

// Standard errors.
var (
	// ErrUnsupported is returned on platforms without thread-directed signals
	// and futexes.
	ErrUnsupported = fmt.Errorf("sigrelease: %w", errors.ErrUnsupported)

	// ErrInvalidStrategy is returned for an unknown or zero Strategy.
	ErrInvalidStrategy = errors.New("sigrelease: invalid strategy")

	// ErrInvalidSignal is returned for a signal that cannot be used to drive
	// the protocol.
	ErrInvalidSignal = errors.New("sigrelease: invalid signal")

	// ErrInvalidOption is returned by Run when an Option rejects its value.
	ErrInvalidOption = errors.New("sigrelease: invalid option")

	// ErrRunActive is returned when Run is called while another run owns the
	// handler context.
	ErrRunActive = errors.New("sigrelease: another run is active")

	// ErrUnpublished is returned when dispatching to a handle that was never
	// published.
	ErrUnpublished = errors.New("sigrelease: thread handle not published")

	// ErrBarrierOverflow is returned when a party arrives at an already
	// complete two-party barrier.
	ErrBarrierOverflow = errors.New("sigrelease: barrier overflow")

	// ErrJoinTimeout is returned when the release was not confirmed, or the
	// worker did not exit, within the configured join timeout.
	ErrJoinTimeout = errors.New("sigrelease: join timed out")
)

// SetupError is returned when the signal handler cannot be installed.
type SetupError struct {
	Cause  error
	Signal syscall.Signal
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return fmt.Sprintf("sigrelease: install handler for signal %d: %v", int(e.Signal), e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *SetupError) Unwrap() error {
	return e.Cause
}

// DispatchError is returned when the signal could not be sent to the worker.
type DispatchError struct {
	Cause  error
	Handle ThreadHandle
	Signal syscall.Signal
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("sigrelease: send signal %d to thread %d: %v", int(e.Signal), e.Handle, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// JoinError is returned when the worker failed, including when it panicked,
// in which case Cause is a [PanicError].
type JoinError struct {
	Cause  error
	Worker ThreadHandle
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	return fmt.Sprintf("sigrelease: worker thread %d: %v", e.Worker, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *JoinError) Unwrap() error {
	return e.Cause
}

// ReleaseError is returned when the handler-side release action failed.
type ReleaseError struct {
	Cause    error
	Strategy Strategy
}

// Error implements the error interface.
func (e *ReleaseError) Error() string {
	return fmt.Sprintf("sigrelease: %s release: %v", e.Strategy, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ReleaseError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking worker.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error, otherwise nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
