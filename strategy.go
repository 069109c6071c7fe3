package sigrelease

import (
	"fmt"
	"strings"
)

// Strategy selects the wait primitive the worker parks on, and the matching
// handler-side release action.
type Strategy uint8

const (
	// StrategyBarrier parks the worker on a two-party barrier; the handler
	// arrives as the second party. Order independent, so an early signal is
	// never lost.
	StrategyBarrier Strategy = iota + 1
	// StrategyFutex parks the worker in futex(2) while a cell is 0; the
	// handler stores 1 and wakes one waiter.
	StrategyFutex
	// StrategyCondVar parks the worker on a condition variable. The handler
	// only sets an atomic flag, the controller takes the mutex and notifies.
	StrategyCondVar
	// StrategyAtomicSpin spins the worker on an atomic cell, yielding each
	// iteration; the handler stores a non-zero value.
	StrategyAtomicSpin
)

var strategyNames = [...]string{
	StrategyBarrier:    "barrier",
	StrategyFutex:      "futex",
	StrategyCondVar:    "condvar",
	StrategyAtomicSpin: "spin",
}

// Strategies returns every valid strategy, in declaration order.
func Strategies() []Strategy {
	return []Strategy{StrategyBarrier, StrategyFutex, StrategyCondVar, StrategyAtomicSpin}
}

// String returns the canonical name of the strategy.
func (s Strategy) String() string {
	if s.Valid() {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	return s >= StrategyBarrier && s <= StrategyAtomicSpin
}

// ParseStrategy parses a strategy name, case-insensitively. Besides the
// canonical names it accepts "cond", "cv", "atomic", and "atomic-spin".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "barrier":
		return StrategyBarrier, nil
	case "futex":
		return StrategyFutex, nil
	case "condvar", "cond", "cv":
		return StrategyCondVar, nil
	case "spin", "atomic", "atomic-spin", "atomicspin":
		return StrategyAtomicSpin, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}

// waitMessage is what the worker reports just before parking.
func (s Strategy) waitMessage() string {
	switch s {
	case StrategyBarrier:
		return "waiting for the barrier to unlock now"
	case StrategyFutex:
		return "waiting for futex"
	case StrategyCondVar:
		return "waiting on the condvar"
	case StrategyAtomicSpin:
		return "spinning on the atomic flag"
	}
	return "waiting"
}

func (s Strategy) newReleaser() (releaser, error) {
	switch s {
	case StrategyBarrier:
		return newBarrierRelease(), nil
	case StrategyFutex:
		return new(futexRelease), nil
	case StrategyCondVar:
		return newCondVarRelease(), nil
	case StrategyAtomicSpin:
		return new(spinRelease), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidStrategy, s)
}

// releaser pairs the worker-side wait with the handler-side release.
type releaser interface {
	// park blocks the worker until released. It must terminate rather than
	// restart once the release happened, whichever order park and release
	// ran in.
	park() error

	// release is the handler body. Lock-free operations only: atomic stores
	// and at most one futex wake. A redundant call must not release twice.
	release() error

	// released reports whether release has taken effect, as observed by the
	// controller.
	released() bool

	// settle runs on the controller, in normal (non-handler) context, after
	// released reports true. Idempotent.
	settle()
}
