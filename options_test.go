package sigrelease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRunOptions_defaults(t *testing.T) {
	cfg, err := resolveRunOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyFutex, cfg.strategy)
	assert.Equal(t, defaultSignal, cfg.signal)
	assert.Equal(t, DefaultReadinessDelay, cfg.readinessDelay)
	assert.Zero(t, cfg.joinTimeout)
	assert.False(t, cfg.awaitParked)
	assert.Nil(t, cfg.logger)
}

func TestResolveRunOptions_apply(t *testing.T) {
	cfg, err := resolveRunOptions([]Option{
		nil,
		WithStrategy(StrategyBarrier),
		WithReadinessDelay(0),
		WithAwaitParked(true),
		WithJoinTimeout(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyBarrier, cfg.strategy)
	assert.Zero(t, cfg.readinessDelay)
	assert.True(t, cfg.awaitParked)
	assert.Equal(t, time.Second, cfg.joinTimeout)
}

func TestResolveRunOptions_invalid(t *testing.T) {
	_, err := resolveRunOptions([]Option{WithStrategy(0)})
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = resolveRunOptions([]Option{WithReadinessDelay(-time.Second)})
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = resolveRunOptions([]Option{WithJoinTimeout(-1)})
	assert.ErrorIs(t, err, ErrInvalidOption)
}
