package sigrelease

import (
	"errors"
	"sync/atomic"

	"github.com/joeycumines/go-sigrelease/internal/console"
)

// active guards the process-wide handler context.
var active atomic.Bool

// run is the shared state of one controller/worker pair. It is built before
// the worker starts and dropped after the join.
type run struct {
	cfg   *runOptions
	rel   releaser
	slot  Slot
	phase PhaseTracker

	// written by the worker, read after the join
	worker   ThreadHandle
	awakened int64

	// handler outcomes, handler writes only atomics and fault (guarded by
	// faulted)
	fault     error
	faulted   atomic.Bool
	redundant atomic.Uint32
}

func newRun(cfg *runOptions) (*run, error) {
	rel, err := cfg.strategy.newReleaser()
	if err != nil {
		return nil, err
	}
	return &run{cfg: cfg, rel: rel}, nil
}

// onSignal is the handler body: release, then record the outcome in atomics.
func (r *run) onSignal() {
	if r.rel.released() {
		r.redundant.Add(1)
		return
	}
	if err := r.rel.release(); err != nil {
		if errors.Is(err, ErrBarrierOverflow) {
			r.redundant.Add(1)
			return
		}
		if r.faulted.CompareAndSwap(false, true) {
			r.fault = err
		}
		return
	}
	r.phase.Advance(PhaseReleased)
}

func (r *run) progress(tid ThreadHandle, msg string) {
	r.cfg.logger.Info().Int64(console.ThreadField, int64(tid)).Log(msg)
}
