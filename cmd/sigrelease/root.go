package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	sigrelease "github.com/joeycumines/go-sigrelease"
	"github.com/joeycumines/go-sigrelease/internal/console"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	strategy    string
	signal      string
	delay       time.Duration
	joinTimeout time.Duration
	iterations  int
	awaitParked bool
	json        bool
	verbose     bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "sigrelease",
		Short: "Release a parked worker thread with a thread-directed signal",
		Long: `sigrelease starts a worker thread, waits for it to park on the chosen wait
primitive, sends it a signal with tgkill(2), and checks that the signal
handler's release action wakes it. Any failure exits non-zero.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.strategy, "strategy", sigrelease.StrategyFutex.String(), "release strategy: barrier, futex, condvar, spin")
	f.StringVar(&flags.signal, "signal", "SIGUSR1", "signal to send: SIGUSR1, SIGUSR2, SIGRTMIN+n, SIGRTMAX-n (SIGRTMIN is 35)")
	f.DurationVar(&flags.delay, "delay", sigrelease.DefaultReadinessDelay, "readiness delay before sending the signal")
	f.BoolVar(&flags.awaitParked, "await-parked", false, "also wait for the worker to report it is about to block")
	f.DurationVar(&flags.joinTimeout, "join-timeout", 0, "bound the final join (0 waits forever)")
	f.IntVar(&flags.iterations, "iterations", 1, "number of runs; more than one reports latency quantiles")
	f.BoolVar(&flags.json, "json", false, "log JSON lines instead of progress lines")
	f.BoolVar(&flags.verbose, "verbose", false, "include debug diagnostics")

	cmd.AddCommand(newListCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the release strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range sigrelease.Strategies() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runRoot(cmd *cobra.Command, flags *rootFlags) error {
	logger := newLogger(cmd.OutOrStdout(), flags.json, flags.verbose)

	err := execute(cmd.Context(), logger, flags)
	if err != nil {
		logger.Crit().Err(err).Log("test case failed")
	}
	return err
}

func execute(ctx context.Context, logger *logiface.Logger[logiface.Event], flags *rootFlags) error {
	strategy, err := sigrelease.ParseStrategy(flags.strategy)
	if err != nil {
		return err
	}
	sig, err := sigrelease.ParseSignal(flags.signal)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []sigrelease.Option{
		sigrelease.WithStrategy(strategy),
		sigrelease.WithSignal(sig),
		sigrelease.WithReadinessDelay(flags.delay),
		sigrelease.WithAwaitParked(flags.awaitParked),
		sigrelease.WithJoinTimeout(flags.joinTimeout),
		sigrelease.WithLogger(logger),
	}

	if flags.iterations > 1 {
		_, err := sigrelease.Soak(ctx, flags.iterations, opts...)
		return err
	}
	_, err = sigrelease.Run(ctx, opts...)
	return err
}

func newLogger(w io.Writer, json, verbose bool) *logiface.Logger[logiface.Event] {
	level := logiface.LevelInformational
	if verbose {
		level = logiface.LevelDebug
	}
	if json {
		return stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(level),
		).Logger()
	}
	return console.New(w, level).Logger()
}
