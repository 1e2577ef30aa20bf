package infra

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) Cleanup() { c.calls.Add(1) }

func TestStartJanitor_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &countingCleaner{}

	StartJanitor(ctx, 5*time.Millisecond, c)

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := c.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, c.calls.Load(), "janitor should stop after cancel")
}

func TestStartJanitor_DisabledWithZeroInterval(t *testing.T) {
	c := &countingCleaner{}
	StartJanitor(context.Background(), 0, c)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), c.calls.Load())
}
