package sigrelease

import (
	"sync"
	"sync/atomic"
)

// condVarRelease splits the release in two: the handler sets fired, and the
// controller, observing fired, sets ready under the mutex and signals.
type condVarRelease struct {
	cond    *sync.Cond
	mu      sync.Mutex
	ready   bool // guarded by mu
	fired   atomic.Bool
	settled atomic.Bool
}

func newCondVarRelease() *condVarRelease {
	c := &condVarRelease{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *condVarRelease) park() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.ready {
		c.cond.Wait()
	}
	return nil
}

// release must not touch mu.
func (c *condVarRelease) release() error {
	c.fired.Store(true)
	return nil
}

func (c *condVarRelease) released() bool {
	return c.fired.Load()
}

func (c *condVarRelease) settle() {
	if !c.settled.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	c.ready = true
	c.cond.Signal()
	c.mu.Unlock()
}
