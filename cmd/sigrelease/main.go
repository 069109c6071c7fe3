// Command sigrelease runs the signal-driven thread release protocol once (or
// repeatedly, with --iterations) and exits non-zero if it fails.
//
// With no flags it runs the futex strategy, releasing the worker with
// SIGUSR1 after a 100ms readiness delay, printing progress lines such as
//
//	[tid=4127] starting
//	[tid=4127] signal is set up
//	[tid=4131] waiting for futex
//	[tid=4127] got the pthread 4131
//	[tid=4127] sent the signal
//	[tid=4131] awakened!
//	[tid=4127] test case finished as expected!
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
