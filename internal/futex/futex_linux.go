//go:build linux

package futex

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	opWait      = 0
	opWake      = 1
	privateFlag = 128
)

// Wait blocks the calling thread while *addr == val.
//
// The comparison and the sleep are a single kernel operation, so a Wake that
// lands between the caller's last load and this call is never lost: the
// kernel sees the changed value and returns immediately. A nil error means
// the caller must re-check the cell, it may have been woken, interrupted by
// a signal, or found the value already changed.
func Wait(addr *uint32, val uint32) error {
	_, _, e := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		opWait|privateFlag,
		uintptr(val),
		0, 0, 0,
	)
	switch e {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	}
	return e
}

// Wake wakes at most n threads waiting on addr, returning how many woke.
//
// It never blocks and never allocates on success, which makes it usable from
// a signal handler path.
func Wake(addr *uint32, n int) (int, error) {
	r, _, e := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		opWake|privateFlag,
		uintptr(n),
		0, 0, 0,
	)
	if e != 0 {
		return 0, e
	}
	return int(r), nil
}
