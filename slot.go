package sigrelease

import (
	"context"
	"sync/atomic"
)

// ThreadHandle is a kernel thread id, the target of thread-directed signal
// delivery. It is distinct from any logical goroutine or worker index.
type ThreadHandle int32

// Unpublished is the sentinel held by a Slot before the worker publishes.
const Unpublished ThreadHandle = 0

// spins between context checks while awaiting publication
const awaitCheckInterval = 1 << 12

// Valid reports whether h can be targeted.
func (h ThreadHandle) Valid() bool {
	return h > 0
}

// Slot is the publication cell for the worker's ThreadHandle: single writer,
// single reader until seen. All accesses are sequentially consistent.
type Slot struct {
	v atomic.Int32
}

// Publish stores h, once. It returns false, leaving the slot unchanged, if a
// handle was already published or h is not valid.
func (s *Slot) Publish(h ThreadHandle) bool {
	return h.Valid() && s.v.CompareAndSwap(int32(Unpublished), int32(h))
}

// Load returns the published handle, or Unpublished.
func (s *Slot) Load() ThreadHandle {
	return ThreadHandle(s.v.Load())
}

// Await busy-polls until a handle is published. There is no backoff, the
// publication window is expected to be microseconds. ctx is only consulted
// periodically, so cancellation is coarse.
func (s *Slot) Await(ctx context.Context) (ThreadHandle, error) {
	for i := 1; ; i++ {
		if h := s.Load(); h != Unpublished {
			return h, nil
		}
		if i%awaitCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Unpublished, err
			}
		}
	}
}
