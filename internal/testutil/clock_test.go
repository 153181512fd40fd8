package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClockSleepAdvances(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()

	require.NoError(t, c.Sleep(context.Background(), 3*time.Second))
	assert.Equal(t, 3*time.Second, c.Now().Sub(start))

	c.Advance(time.Minute)
	assert.Equal(t, time.Minute+3*time.Second, c.Now().Sub(start))
}

func TestFakeClockSleepHonorsCancellation(t *testing.T) {
	c := NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixedTokenGenerator(t *testing.T) {
	g := NewFixedTokenGenerator("run-01")
	assert.Equal(t, "run-01", g.Generate())
	assert.Equal(t, "run-01", g.Generate())

	assert.Equal(t, "test-run-default", NewFixedTokenGenerator("").Generate())
}
