// Package sigrelease validates signal-driven thread release: a controller
// delivers one asynchronous signal to a specific, already parked worker
// thread, and the signal handler moves that thread from its blocked wait to
// runnable.
//
// # Protocol
//
// A run has exactly one controller and one worker:
//
//  1. The controller installs the handler ([NewDispatcher]).
//  2. The worker pins itself to a kernel thread, publishes the thread id into
//     a [Slot], and parks on the wait primitive of the chosen [Strategy].
//  3. The controller spins until the id is visible, sleeps for the readiness
//     delay, and sends the signal to exactly that thread (tgkill(2)).
//  4. The handler performs the strategy's release action.
//  5. The controller confirms the release, then joins the worker.
//
// Progress is tracked by a forward-only [PhaseTracker]:
//
//	Idle → WorkerStarted → WorkerParked → SignalDelivered → Released → WorkerExited
//
// # Strategies
//
//   - [StrategyBarrier]: two-party rendezvous, the handler is the second party
//   - [StrategyFutex]: futex(2) wait on a 32-bit cell, handler stores 1 and wakes
//   - [StrategyCondVar]: mutex + condition variable, the handler only sets an
//     atomic flag and the controller performs the notify
//   - [StrategyAtomicSpin]: the worker spins on an atomic the handler sets
//
// # Handler restrictions
//
// The Go runtime owns sigaction(2), installing every handler with
// SA_SIGINFO|SA_RESTART|SA_ONSTACK, and forwards delivered signals to the
// dispatcher's handler goroutine. Handler bodies are still held to
// async-signal-safe rules: atomic loads and stores, at most one futex wake,
// no mutexes, no allocation, no logging.
//
// Only one run may be active per process, since signal disposition is
// process-wide. [Run] returns [ErrRunActive] otherwise.
//
// # Usage
//
//	res, err := sigrelease.Run(ctx,
//	    sigrelease.WithStrategy(sigrelease.StrategyFutex),
//	    sigrelease.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Latency())
//
// Linux only. Elsewhere [Run] and [Soak] return [ErrUnsupported].
package sigrelease
