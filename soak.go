package sigrelease

import (
	"context"
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
)

// soak progress lines allowed per strategy
var soakLogRates = map[time.Duration]int{
	time.Second: 2,
	time.Minute: 30,
}

// Soak runs the protocol iterations times in sequence, failing on the first
// failed run. Each run is a fresh controller/worker pair with fresh shared
// state. The logger passed via WithLogger receives a summary and rate
// limited progress instead of every run's progress lines.
func Soak(ctx context.Context, iterations int, opts ...Option) (*SoakReport, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations %d", ErrInvalidOption, iterations)
	}
	cfg, err := resolveRunOptions(opts)
	if err != nil {
		return nil, err
	}
	log := cfg.logger
	limiter := catrate.NewLimiter(soakLogRates)

	// later options win, so this silences each run
	runOpts := append(append([]Option(nil), opts...), WithLogger(nil))

	report := &SoakReport{Strategy: cfg.strategy}
	stats := newLatencyStats()
	for i := range iterations {
		res, err := Run(ctx, runOpts...)
		if err != nil {
			log.Err().
				Err(err).
				Str("strategy", cfg.strategy.String()).
				Int("iteration", i).
				Log("soak run failed")
			return report, fmt.Errorf("iteration %d: %w", i, err)
		}
		report.Runs++
		if res.Invocations > 1 || res.Redundant > 0 {
			report.RedundantRuns++
		}
		if !res.ParkedBeforeSignal {
			report.EarlySignals++
		}
		stats.observe(max(res.Latency(), 0))

		if _, ok := limiter.Allow(cfg.strategy); ok {
			log.Info().
				Str("strategy", cfg.strategy.String()).
				Int("iteration", i+1).
				Int("of", iterations).
				Dur("latency", res.Latency()).
				Log("soak progress")
		}
	}
	stats.fill(report)

	log.Info().
		Str("strategy", cfg.strategy.String()).
		Int("runs", report.Runs).
		Int("redundant_runs", report.RedundantRuns).
		Int("early_signals", report.EarlySignals).
		Dur("p50", report.P50).
		Dur("p90", report.P90).
		Dur("p99", report.P99).
		Dur("max", report.Max).
		Dur("mean", report.Mean).
		Log("soak finished")
	return report, nil
}
