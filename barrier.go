package sigrelease

import (
	"sync/atomic"

	"github.com/joeycumines/go-sigrelease/internal/futex"
)

const barrierParties = 2

// barrierRelease is a two-party rendezvous over a futex cell. The worker
// arrives and sleeps until both parties are in; the handler arrives without
// ever sleeping.
type barrierRelease struct {
	arrivals uint32 // futex cell, accessed atomically
	parties  uint32
	handler  atomic.Bool
}

func newBarrierRelease() *barrierRelease {
	return &barrierRelease{parties: barrierParties}
}

// arrive records one arrival, waking sleepers if it completes the pair.
func (b *barrierRelease) arrive() error {
	n := atomic.AddUint32(&b.arrivals, 1)
	switch {
	case n > b.parties:
		return ErrBarrierOverflow
	case n == b.parties:
		if _, err := futex.Wake(&b.arrivals, int(b.parties)); err != nil {
			return err
		}
	}
	return nil
}

func (b *barrierRelease) park() error {
	if err := b.arrive(); err != nil {
		return err
	}
	for {
		n := atomic.LoadUint32(&b.arrivals)
		if n >= b.parties {
			return nil
		}
		if err := futex.Wait(&b.arrivals, n); err != nil {
			return err
		}
	}
}

// release contributes the handler's arrival. A repeated signal would be a
// third arrival, so only the first invocation counts.
func (b *barrierRelease) release() error {
	if !b.handler.CompareAndSwap(false, true) {
		return ErrBarrierOverflow
	}
	return b.arrive()
}

func (b *barrierRelease) released() bool {
	return b.handler.Load()
}

func (b *barrierRelease) settle() {}
