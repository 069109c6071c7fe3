package sigrelease

import (
	"syscall"
	"time"
)

// Result describes one completed run.
type Result struct {
	// SignalSent is when tgkill returned, Awakened when the worker's wait
	// returned.
	SignalSent time.Time
	Awakened   time.Time

	// History lists the phases reached, in protocol order.
	History []Phase

	Strategy Strategy
	Signal   syscall.Signal

	// Controller and Worker are the thread ids as each thread read its own.
	// Handle is what the controller observed in the publication slot.
	Controller ThreadHandle
	Worker     ThreadHandle
	Handle     ThreadHandle

	// Invocations counts handler runs. Redundant counts invocations that
	// found the strategy already released and did nothing.
	Invocations uint32
	Redundant   uint32

	// ParkedBeforeSignal is whether the worker had reported it was about to
	// block when the signal was sent.
	ParkedBeforeSignal bool
}

// Latency is the time from the signal being sent to the worker waking.
// Negative when the worker woke first, which happens with
// StrategyAtomicSpin and an early signal.
func (r *Result) Latency() time.Duration {
	return r.Awakened.Sub(r.SignalSent)
}

// SoakReport summarises repeated runs of one strategy.
type SoakReport struct {
	Strategy Strategy
	Runs     int

	// RedundantRuns counts runs where the handler ran more than once.
	RedundantRuns int

	// EarlySignals counts runs where the signal beat the worker to its wait.
	EarlySignals int

	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}
