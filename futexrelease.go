package sigrelease

import (
	"sync/atomic"

	"github.com/joeycumines/go-sigrelease/internal/futex"
)

// futexRelease: 0 = not signaled, 1 = signaled.
type futexRelease struct {
	cell uint32
}

func (f *futexRelease) park() error {
	for atomic.LoadUint32(&f.cell) == 0 {
		if err := futex.Wait(&f.cell, 0); err != nil {
			return err
		}
	}
	return nil
}

func (f *futexRelease) release() error {
	atomic.StoreUint32(&f.cell, 1)
	_, err := futex.Wake(&f.cell, 1)
	return err
}

func (f *futexRelease) released() bool {
	return atomic.LoadUint32(&f.cell) != 0
}

func (f *futexRelease) settle() {}
