//go:build linux

package sigrelease

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parkLocked parks rel on a dedicated, locked thread.
func parkLocked(rel releaser) <-chan error {
	done := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		done <- rel.park()
	}()
	return done
}

func requireDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker not released")
	}
}

func requireBlocked(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		t.Fatalf("worker returned before release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReleasers_releaseAfterPark(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			rel, err := s.newReleaser()
			require.NoError(t, err)

			done := parkLocked(rel)
			requireBlocked(t, done)

			require.NoError(t, rel.release())
			assert.True(t, rel.released())
			rel.settle()
			requireDone(t, done)
		})
	}
}

func TestReleasers_releaseBeforePark(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			rel, err := s.newReleaser()
			require.NoError(t, err)

			require.NoError(t, rel.release())
			rel.settle()
			requireDone(t, parkLocked(rel))
		})
	}
}

func TestReleasers_redundantRelease(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			rel, err := s.newReleaser()
			require.NoError(t, err)
			done := parkLocked(rel)

			require.NoError(t, rel.release())
			err = rel.release()
			if s == StrategyBarrier {
				assert.ErrorIs(t, err, ErrBarrierOverflow)
			} else {
				assert.NoError(t, err)
			}
			rel.settle()
			rel.settle()
			requireDone(t, done)
		})
	}
}

// Setting the flag alone must not wake the condvar worker, the controller's
// settle does.
func TestCondVarRelease_settleWakes(t *testing.T) {
	rel := newCondVarRelease()
	done := parkLocked(rel)

	require.NoError(t, rel.release())
	requireBlocked(t, done)

	rel.settle()
	requireDone(t, done)
}

func TestBarrierRelease_workerOverflow(t *testing.T) {
	b := newBarrierRelease()
	require.NoError(t, b.release())
	require.NoError(t, b.park())
	assert.ErrorIs(t, b.park(), ErrBarrierOverflow)
}
