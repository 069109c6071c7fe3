//go:build !linux

package futex

import (
	"errors"
)

func Wait(addr *uint32, val uint32) error {
	return errors.ErrUnsupported
}

func Wake(addr *uint32, n int) (int, error) {
	return 0, errors.ErrUnsupported
}
