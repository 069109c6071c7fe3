//go:build linux

package sigrelease

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"
)

const (
	// 32 and 33 belong to glibc and 34 to musl; the runtime never forwards
	// any of them to signal.Notify, so a send would kill the process
	sigRTMin = syscall.Signal(35)
	sigRTMax = syscall.Signal(64)
)

var defaultSignal = syscall.SIGUSR1

// ValidSignal reports whether sig can drive the protocol: SIGUSR1, SIGUSR2,
// or a real-time signal from 35 to 64. Everything else either terminates by
// convention or is owned by the Go runtime (SIGPROF, SIGURG, 32 to 34) and
// never forwarded. SIGRTMIN in ParseSignal names 35, not the libc value.
func ValidSignal(sig syscall.Signal) error {
	switch {
	case sig == syscall.SIGUSR1, sig == syscall.SIGUSR2:
		return nil
	case sig >= sigRTMin && sig <= sigRTMax:
		return nil
	}
	return fmt.Errorf("%w: %d (%s)", ErrInvalidSignal, int(sig), sig)
}

// ParseSignal parses "SIGUSR1", "usr2", "SIGRTMIN+3", "RTMAX-1", or a number.
// The result is checked with ValidSignal.
func ParseSignal(s string) (syscall.Signal, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "SIG")

	var sig syscall.Signal
	switch {
	case name == "USR1":
		sig = syscall.SIGUSR1
	case name == "USR2":
		sig = syscall.SIGUSR2
	case strings.HasPrefix(name, "RTMIN"):
		off, err := rtOffset(name[len("RTMIN"):], '+')
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSignal, s)
		}
		sig = sigRTMin + syscall.Signal(off)
	case strings.HasPrefix(name, "RTMAX"):
		off, err := rtOffset(name[len("RTMAX"):], '-')
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSignal, s)
		}
		sig = sigRTMax - syscall.Signal(off)
	default:
		n, err := strconv.Atoi(name)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSignal, s)
		}
		sig = syscall.Signal(n)
	}

	if err := ValidSignal(sig); err != nil {
		return 0, err
	}
	return sig, nil
}

func rtOffset(rest string, sign byte) (int, error) {
	if rest == "" {
		return 0, nil
	}
	if rest[0] != sign {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.Atoi(rest[1:])
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int(sigRTMax-sigRTMin) {
		return 0, strconv.ErrRange
	}
	return n, nil
}
