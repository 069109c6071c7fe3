package sigrelease

import (
	"sync/atomic"
)

// Phase is a step of the release protocol.
//
// State Machine (forward only):
//
//	PhaseIdle (0) → PhaseWorkerStarted (1)     [worker published its handle]
//	PhaseWorkerStarted (1) → PhaseWorkerParked (2)   [worker about to block]
//	PhaseWorkerParked (2) → PhaseSignalDelivered (3) [tgkill succeeded]
//	PhaseSignalDelivered (3) → PhaseReleased (4)     [handler release action]
//	PhaseReleased (4) → PhaseWorkerExited (5)        [worker returned]
//	PhaseWorkerExited (5) → (terminal)
//
// The phases are reached by three different goroutines, so an early signal
// can reach PhaseReleased before the worker marks PhaseWorkerParked. The
// tracker keeps both the furthest phase and the set of phases ever reached.
type Phase uint32

const (
	PhaseIdle Phase = iota
	PhaseWorkerStarted
	PhaseWorkerParked
	PhaseSignalDelivered
	PhaseReleased
	PhaseWorkerExited
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseWorkerStarted:
		return "WorkerStarted"
	case PhaseWorkerParked:
		return "WorkerParked"
	case PhaseSignalDelivered:
		return "SignalDelivered"
	case PhaseReleased:
		return "Released"
	case PhaseWorkerExited:
		return "WorkerExited"
	default:
		return "Unknown"
	}
}

// PhaseTracker is a lock-free, forward-only record of protocol progress.
// The zero value is ready to use, in PhaseIdle.
type PhaseTracker struct {
	cur  atomic.Uint32
	seen atomic.Uint32 // bit per phase
}

// Load returns the furthest phase reached.
func (t *PhaseTracker) Load() Phase {
	return Phase(t.cur.Load())
}

// Advance marks p as reached, moving the furthest phase forward if p is past
// it. Returns true if the furthest phase moved.
func (t *PhaseTracker) Advance(p Phase) bool {
	t.markSeen(p)
	for {
		cur := t.cur.Load()
		if uint32(p) <= cur {
			return false
		}
		if t.cur.CompareAndSwap(cur, uint32(p)) {
			return true
		}
	}
}

func (t *PhaseTracker) markSeen(p Phase) {
	bit := uint32(1) << p
	for {
		s := t.seen.Load()
		if s&bit != 0 || t.seen.CompareAndSwap(s, s|bit) {
			return
		}
	}
}

// Reached reports whether p was ever marked. PhaseIdle is always reached.
func (t *PhaseTracker) Reached(p Phase) bool {
	return p == PhaseIdle || t.seen.Load()&(uint32(1)<<p) != 0
}

// IsTerminal returns true once the worker has exited.
func (t *PhaseTracker) IsTerminal() bool {
	return t.Load() == PhaseWorkerExited
}

// History returns the reached phases, in protocol order.
func (t *PhaseTracker) History() []Phase {
	out := []Phase{PhaseIdle}
	for p := PhaseWorkerStarted; p <= PhaseWorkerExited; p++ {
		if t.Reached(p) {
			out = append(out, p)
		}
	}
	return out
}
