//go:build linux

package sigrelease

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/joeycumines/go-sigrelease/internal/osthread"
)

// deliveries that may queue before os/signal starts dropping them
const dispatchBuffer = 8

// Dispatcher owns the handler for one signal and sends that signal to
// specific threads.
//
// The runtime's real handler runs on the interrupted thread and forwards the
// signal; handler (as passed to NewDispatcher) runs on a dedicated goroutine,
// one invocation at a time. Standard signals pending for the same thread
// coalesce, so Invocations may be lower than the number of sends.
//
// The signal should be dedicated to the dispatcher; see Stop.
type Dispatcher struct {
	handler     func()
	ch          chan os.Signal
	done        chan struct{}
	stopOnce    sync.Once
	pid         int
	invocations atomic.Uint32
	sent        atomic.Uint32
	sig         syscall.Signal
}

// NewDispatcher installs handler for sig. Failure is a *SetupError.
func NewDispatcher(sig syscall.Signal, handler func()) (*Dispatcher, error) {
	if handler == nil {
		return nil, &SetupError{Signal: sig, Cause: errors.New("nil handler")}
	}
	if err := ValidSignal(sig); err != nil {
		return nil, &SetupError{Signal: sig, Cause: err}
	}
	d := &Dispatcher{
		handler: handler,
		ch:      make(chan os.Signal, dispatchBuffer),
		done:    make(chan struct{}),
		pid:     osthread.Getpid(),
		sig:     sig,
	}
	signal.Notify(d.ch, sig)
	go d.loop()
	return d, nil
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for range d.ch {
		d.invocations.Add(1)
		d.handler()
	}
}

// Send delivers the signal to thread h, and only h. It does not retry.
// Failure is a *DispatchError.
func (d *Dispatcher) Send(h ThreadHandle) error {
	if !h.Valid() {
		return &DispatchError{Handle: h, Signal: d.sig, Cause: ErrUnpublished}
	}
	if err := osthread.Tgkill(d.pid, int32(h), d.sig); err != nil {
		return &DispatchError{Handle: h, Signal: d.sig, Cause: err}
	}
	d.sent.Add(1)
	return nil
}

// Signal returns the signal the dispatcher handles.
func (d *Dispatcher) Signal() syscall.Signal {
	return d.sig
}

// Invocations returns the number of times the handler has run.
func (d *Dispatcher) Invocations() uint32 {
	return d.invocations.Load()
}

// Sent returns the number of successful sends.
func (d *Dispatcher) Sent() uint32 {
	return d.sent.Load()
}

// Stop uninstalls the handler and waits for any in-flight invocation to
// return. The signal is left ignored rather than reset, so a late delivery
// cannot terminate the process. signal.Ignore is process-wide: any other
// signal.Notify registration for the same signal stops receiving it until
// re-registered. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		signal.Ignore(d.sig)
		signal.Stop(d.ch)
		close(d.ch)
		<-d.done
	})
}
