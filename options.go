// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package sigrelease

import (
	"fmt"
	"syscall"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultReadinessDelay is how long the controller waits, after seeing the
// worker's handle, before sending the signal.
const DefaultReadinessDelay = 100 * time.Millisecond

// runOptions holds configuration options for a run.
type runOptions struct {
	logger         *logiface.Logger[logiface.Event]
	beforePark     func(*run)
	signal         syscall.Signal
	readinessDelay time.Duration
	joinTimeout    time.Duration
	extraSignals   int
	strategy       Strategy
	awaitParked    bool
}

// --- Run Options ---

// Option configures a run.
type Option interface {
	applyRun(*runOptions) error
}

// runOptionImpl implements Option.
type runOptionImpl struct {
	applyRunFunc func(*runOptions) error
}

func (r *runOptionImpl) applyRun(opts *runOptions) error {
	return r.applyRunFunc(opts)
}

// WithStrategy selects the release strategy. Defaults to StrategyFutex.
func WithStrategy(strategy Strategy) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		if !strategy.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidStrategy, strategy)
		}
		opts.strategy = strategy
		return nil
	}}
}

// WithSignal selects the signal used to release the worker. Defaults to
// SIGUSR1. See ValidSignal for what is accepted.
func WithSignal(sig syscall.Signal) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.signal = sig
		return nil
	}}
}

// WithReadinessDelay sets the pause between observing the worker's handle
// and sending the signal. Zero is allowed: every strategy tolerates the
// signal arriving before the worker parks.
func WithReadinessDelay(d time.Duration) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		if d < 0 {
			return fmt.Errorf("%w: negative readiness delay %s", ErrInvalidOption, d)
		}
		opts.readinessDelay = d
		return nil
	}}
}

// WithAwaitParked additionally gates the signal on the worker having
// reported that it is about to block, before the readiness delay starts.
// Disabled by default.
func WithAwaitParked(enabled bool) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.awaitParked = enabled
		return nil
	}}
}

// WithJoinTimeout bounds everything after the signal is sent: confirming the
// release and joining the worker. Zero (the default) waits forever. Expiry
// fails the run with ErrJoinTimeout, so a lost signal cannot hang the run.
func WithJoinTimeout(d time.Duration) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		if d < 0 {
			return fmt.Errorf("%w: negative join timeout %s", ErrInvalidOption, d)
		}
		opts.joinTimeout = d
		return nil
	}}
}

// WithLogger sets the logger for progress lines (Info, with an int64 "tid"
// field) and diagnostics (Debug). A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.logger = logger
		return nil
	}}
}

// withBeforePark runs fn on the worker thread after publication, before it
// parks.
func withBeforePark(fn func(*run)) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.beforePark = fn
		return nil
	}}
}

// withExtraSignals sends n more signals after the first.
func withExtraSignals(n int) Option {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.extraSignals = n
		return nil
	}}
}

// resolveRunOptions applies Option instances to runOptions.
func resolveRunOptions(opts []Option) (*runOptions, error) {
	cfg := &runOptions{
		strategy:       StrategyFutex,
		signal:         defaultSignal,
		readinessDelay: DefaultReadinessDelay,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRun(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
