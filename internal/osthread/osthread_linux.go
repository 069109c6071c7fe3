//go:build linux

package osthread

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Gettid returns the kernel thread id of the calling thread.
func Gettid() int32 {
	return int32(unix.Gettid())
}

// Getpid returns the thread group (process) id.
func Getpid() int {
	return unix.Getpid()
}

// Tgkill sends sig to the thread tid within thread group pid, and only to
// that thread.
func Tgkill(pid int, tid int32, sig syscall.Signal) error {
	return unix.Tgkill(pid, int(tid), sig)
}
