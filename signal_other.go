//go:build !linux

package sigrelease

import (
	"syscall"
)

var defaultSignal syscall.Signal

func ValidSignal(sig syscall.Signal) error {
	return ErrUnsupported
}

func ParseSignal(s string) (syscall.Signal, error) {
	return 0, ErrUnsupported
}
