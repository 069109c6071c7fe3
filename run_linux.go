//go:build linux

package sigrelease

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/joeycumines/go-sigrelease/internal/console"
	"github.com/joeycumines/go-sigrelease/internal/osthread"
)

// Run executes one controller/worker round trip on the calling goroutine,
// which acts as the controller for the duration.
//
// There are no retries: install, dispatch, and worker failures are returned
// as *SetupError, *DispatchError, and *JoinError, and the caller is expected
// to treat any error as fatal. Without a join timeout a lost wakeup hangs
// until ctx is done.
//
// The configured signal is ignored process-wide once Run returns, which also
// silences the host program's own signal.Notify channels for it. Programs
// that handle SIGUSR1 themselves should pick another signal via WithSignal.
func Run(ctx context.Context, opts ...Option) (*Result, error) {
	cfg, err := resolveRunOptions(opts)
	if err != nil {
		return nil, err
	}
	r, err := newRun(cfg)
	if err != nil {
		return nil, err
	}
	if !active.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer active.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	res, err := r.execute(ctx)
	if err != nil {
		// never leave the worker thread parked behind a failed run
		r.abandon()
	}
	return res, err
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	log := r.cfg.logger
	tid := ThreadHandle(osthread.Gettid())
	r.progress(tid, "starting")

	d, err := NewDispatcher(r.cfg.signal, r.onSignal)
	if err != nil {
		return nil, err
	}
	defer d.Stop()
	r.progress(tid, "signal is set up")
	log.Debug().
		Int64(console.ThreadField, int64(tid)).
		Str("strategy", r.cfg.strategy.String()).
		Str("signal", r.cfg.signal.String()).
		Log("handler installed")

	done := make(chan error, 1)
	go r.work(done)

	h, err := r.slot.Await(ctx)
	if err != nil {
		return nil, err
	}
	r.progress(tid, fmt.Sprintf("got the pthread %d", h))

	if r.cfg.awaitParked {
		if err := spinUntil(ctx, func() bool { return r.phase.Reached(PhaseWorkerParked) }); err != nil {
			return nil, err
		}
	}
	if err := sleep(ctx, r.cfg.readinessDelay); err != nil {
		return nil, err
	}

	parked := r.phase.Reached(PhaseWorkerParked)
	if err := d.Send(h); err != nil {
		return nil, err
	}
	sent := time.Now()
	for i := 0; i < r.cfg.extraSignals; i++ {
		if err := d.Send(h); err != nil {
			return nil, err
		}
	}
	r.phase.Advance(PhaseSignalDelivered)
	r.progress(tid, "sent the signal")

	ctx, cancel := r.joinContext(ctx)
	defer cancel()

	if err := spinUntil(ctx, func() bool { return r.rel.released() || r.faulted.Load() }); err != nil {
		return nil, err
	}
	if r.faulted.Load() {
		d.Stop()
		return nil, &ReleaseError{Strategy: r.cfg.strategy, Cause: r.fault}
	}
	r.rel.settle()

	r.progress(tid, "waiting for the thread to complete...")
	if err := r.join(ctx, done); err != nil {
		return nil, err
	}

	// joins the handler goroutine, making its writes visible
	d.Stop()
	if r.faulted.Load() {
		return nil, &ReleaseError{Strategy: r.cfg.strategy, Cause: r.fault}
	}

	res := &Result{
		SignalSent:         sent,
		Awakened:           time.Unix(0, r.awakened),
		History:            r.phase.History(),
		Strategy:           r.cfg.strategy,
		Signal:             r.cfg.signal,
		Controller:         tid,
		Worker:             r.worker,
		Handle:             h,
		Invocations:        d.Invocations(),
		Redundant:          r.redundant.Load(),
		ParkedBeforeSignal: parked,
	}
	log.Debug().
		Int64(console.ThreadField, int64(tid)).
		Dur("latency", res.Latency()).
		Uint64("invocations", uint64(res.Invocations)).
		Uint64("redundant", uint64(res.Redundant)).
		Log("worker joined")
	r.progress(tid, "test case finished as expected!")
	return res, nil
}

// work is the worker body. The goroutine stays locked to its thread and
// never unlocks, so the thread exits with it.
func (r *run) work(done chan<- error) {
	runtime.LockOSThread()

	tid := ThreadHandle(osthread.Gettid())
	var err error
	defer func() {
		if v := recover(); v != nil {
			err = &JoinError{Worker: tid, Cause: PanicError{Value: v}}
		}
		r.phase.Advance(PhaseWorkerExited)
		done <- err
	}()

	r.worker = tid
	r.slot.Publish(tid)
	r.phase.Advance(PhaseWorkerStarted)
	r.progress(tid, r.cfg.strategy.waitMessage())

	if r.cfg.beforePark != nil {
		r.cfg.beforePark(r)
	}

	r.phase.Advance(PhaseWorkerParked)
	if perr := r.rel.park(); perr != nil {
		err = &JoinError{Worker: tid, Cause: perr}
		return
	}
	r.awakened = time.Now().UnixNano()
	r.progress(tid, "awakened!")
}

// join waits for the worker, or until ctx is done.
func (r *run) join(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// joinContext bounds release confirmation and the join by the join timeout,
// if configured, failing with ErrJoinTimeout.
func (r *run) joinContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.joinTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, r.cfg.joinTimeout,
		fmt.Errorf("%w after %s", ErrJoinTimeout, r.cfg.joinTimeout))
}

// abandon forces the release from the controller.
func (r *run) abandon() {
	_ = r.rel.release()
	r.rel.settle()
}

func spinUntil(ctx context.Context, cond func() bool) error {
	for i := 1; !cond(); i++ {
		if i%awaitCheckInterval == 0 && ctx.Err() != nil {
			return context.Cause(ctx)
		}
		runtime.Gosched()
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
