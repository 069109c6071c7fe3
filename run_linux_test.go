//go:build linux

package sigrelease

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"
	"unsafe"

	"github.com/joeycumines/go-sigrelease/internal/console"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRun_everyStrategy(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run(testContext(t),
				WithStrategy(s),
				WithReadinessDelay(10*time.Millisecond),
			)
			require.NoError(t, err)

			assert.Equal(t, s, res.Strategy)
			assert.Equal(t, syscall.SIGUSR1, res.Signal)
			assert.True(t, res.Worker.Valid())
			assert.NotEqual(t, res.Controller, res.Worker)
			assert.Equal(t, res.Worker, res.Handle)
			assert.GreaterOrEqual(t, res.Invocations, uint32(1))
			assert.Equal(t, PhaseWorkerExited, res.History[len(res.History)-1])
			assert.Contains(t, res.History, PhaseSignalDelivered)
			assert.Contains(t, res.History, PhaseReleased)
			assert.False(t, res.Awakened.IsZero())
		})
	}
}

func TestRun_awaitParked(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run(testContext(t),
				WithStrategy(s),
				WithReadinessDelay(5*time.Millisecond),
				WithAwaitParked(true),
			)
			require.NoError(t, err)
			assert.True(t, res.ParkedBeforeSignal)
			assert.GreaterOrEqual(t, res.Latency(), time.Duration(0))
		})
	}
}

// The worker is held off its wait until the handler has already released,
// every strategy must still let it through.
func TestRun_signalBeforePark(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run(testContext(t),
				WithStrategy(s),
				WithReadinessDelay(0),
				WithJoinTimeout(10*time.Second),
				withBeforePark(func(r *run) {
					for !r.rel.released() {
						runtime.Gosched()
					}
				}),
			)
			require.NoError(t, err)
			assert.False(t, res.ParkedBeforeSignal)
			assert.Equal(t, PhaseWorkerExited, res.History[len(res.History)-1])
		})
	}
}

func TestRun_zeroDelay(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			for i := 0; i < 25; i++ {
				_, err := Run(testContext(t),
					WithStrategy(s),
					WithReadinessDelay(0),
					WithJoinTimeout(10*time.Second),
				)
				require.NoError(t, err, "iteration %d", i)
			}
		})
	}
}

func TestRun_redundantSignals(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run(testContext(t),
				WithStrategy(s),
				WithSignal(sigRTMin+1),
				WithReadinessDelay(5*time.Millisecond),
				WithJoinTimeout(10*time.Second),
				withExtraSignals(3),
				// keep the worker thread alive until every send has landed,
				// or a late send could hit an exited thread (ESRCH)
				withBeforePark(func(r *run) {
					for !r.phase.Reached(PhaseSignalDelivered) {
						runtime.Gosched()
					}
				}),
			)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Invocations, uint32(1))
			assert.Equal(t, res.Invocations-1, res.Redundant)
		})
	}
}

func TestRun_publicationVisibility(t *testing.T) {
	for i := 0; i < 200; i++ {
		res, err := Run(testContext(t),
			WithStrategy(StrategyAtomicSpin),
			WithReadinessDelay(0),
		)
		require.NoError(t, err)
		require.True(t, res.Handle.Valid())
		require.Equal(t, res.Worker, res.Handle)
	}
}

func TestRun_onlyOneActive(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	errs := make(chan error, 1)
	go func() {
		_, err := Run(testContext(t),
			WithReadinessDelay(0),
			withBeforePark(func(*run) {
				close(entered)
				<-release
			}),
		)
		errs <- err
	}()
	<-entered

	_, err := Run(testContext(t))
	assert.ErrorIs(t, err, ErrRunActive)

	close(release)
	require.NoError(t, <-errs)
}

func TestRun_joinTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := Run(testContext(t),
		WithStrategy(StrategyFutex),
		WithReadinessDelay(0),
		WithJoinTimeout(50*time.Millisecond),
		withBeforePark(func(*run) { <-release }),
	)
	assert.ErrorIs(t, err, ErrJoinTimeout)
}

func TestRun_lowestRealTimeSignal(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Run(testContext(t),
				WithStrategy(s),
				WithSignal(sigRTMin),
				WithReadinessDelay(5*time.Millisecond),
				WithJoinTimeout(10*time.Second),
			)
			require.NoError(t, err)
			assert.Equal(t, syscall.Signal(35), res.Signal)
		})
	}
}

// blockSignal blocks sig on the calling thread, so a tgkill to it stays
// pending and the handler never runs.
func blockSignal(t *testing.T, sig syscall.Signal) {
	var set unix.Sigset_t
	bit := uint(sig - 1)
	width := uint(unsafe.Sizeof(set.Val[0]) * 8)
	set.Val[bit/width] |= 1 << (bit % width)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		t.Error(err)
	}
}

func TestRun_lostSignalTimesOut(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			const timeout = 200 * time.Millisecond
			start := time.Now()
			_, err := Run(testContext(t),
				WithStrategy(s),
				WithReadinessDelay(0),
				WithAwaitParked(true),
				WithJoinTimeout(timeout),
				withBeforePark(func(*run) { blockSignal(t, syscall.SIGUSR1) }),
			)
			elapsed := time.Since(start)
			require.ErrorIs(t, err, ErrJoinTimeout)
			assert.Less(t, elapsed, 10*timeout)
		})
	}
}

func TestRun_workerPanic(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(testContext(t),
		WithStrategy(StrategyCondVar),
		WithReadinessDelay(0),
		withBeforePark(func(r *run) {
			for !r.rel.released() {
				runtime.Gosched()
			}
			panic(boom)
		}),
	)
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.ErrorIs(t, err, boom)
	assert.True(t, je.Worker.Valid())
}

func TestRun_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, WithReadinessDelay(time.Second))
	assert.ErrorIs(t, err, context.Canceled)

	// the handler context was released
	_, err = Run(testContext(t), WithReadinessDelay(0))
	assert.NoError(t, err)
}

func TestRun_invalidSignal(t *testing.T) {
	_, err := Run(testContext(t), WithSignal(syscall.SIGINT))
	var setup *SetupError
	assert.ErrorAs(t, err, &setup)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var progressLine = regexp.MustCompile(`^\[tid=(\d+)\] (.+)$`)

// TestRun_futexTranscript checks the progress lines of a futex run: the
// controller and worker lines each appear in order, tagged with their own
// thread ids.
func TestRun_futexTranscript(t *testing.T) {
	var out syncBuffer
	logger := console.New(&out, logiface.LevelInformational).Logger()

	res, err := Run(testContext(t),
		WithStrategy(StrategyFutex),
		WithReadinessDelay(20*time.Millisecond),
		WithLogger(logger),
	)
	require.NoError(t, err)

	controller := fmt.Sprint(res.Controller)
	worker := fmt.Sprint(res.Worker)

	var ctrlLines, workerLines []string
	for _, line := range bytes.Split(bytes.TrimSpace([]byte(out.String())), []byte("\n")) {
		m := progressLine.FindStringSubmatch(string(line))
		require.NotNil(t, m, "unexpected line %q", line)
		switch m[1] {
		case controller:
			ctrlLines = append(ctrlLines, m[2])
		case worker:
			workerLines = append(workerLines, m[2])
		default:
			t.Fatalf("line from unknown thread: %q", line)
		}
	}

	assert.Equal(t, []string{
		"starting",
		"signal is set up",
		"got the pthread " + worker,
		"sent the signal",
		"waiting for the thread to complete...",
		"test case finished as expected!",
	}, ctrlLines)
	assert.Equal(t, []string{
		"waiting for futex",
		"awakened!",
	}, workerLines)
}
