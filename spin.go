package sigrelease

import (
	"runtime"
	"sync/atomic"
)

// spinRelease has no wait queue, so there is no parked state to miss.
type spinRelease struct {
	flag atomic.Uint32
}

func (s *spinRelease) park() error {
	for s.flag.Load() == 0 {
		runtime.Gosched()
	}
	return nil
}

func (s *spinRelease) release() error {
	s.flag.Store(1)
	return nil
}

func (s *spinRelease) released() bool {
	return s.flag.Load() != 0
}

func (s *spinRelease) settle() {}
