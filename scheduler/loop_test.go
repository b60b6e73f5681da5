package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLoop() (*Loop, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock
}

func TestLoop_TimeoutFiresOnce(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	calls := 0
	loop.SetTimeout("light", 3*time.Second, func(ctx context.Context) { calls++ })

	assert.True(t, loop.Pending("light"))
	assert.Equal(t, 0, loop.Tick(ctx))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 0, loop.Tick(ctx))
	assert.Equal(t, 0, calls)

	clock.Advance(time.Second)
	assert.Equal(t, 1, loop.Tick(ctx))
	assert.Equal(t, 1, calls)
	assert.False(t, loop.Pending("light"))

	clock.Advance(time.Hour)
	assert.Equal(t, 0, loop.Tick(ctx))
	assert.Equal(t, 1, calls)
}

func TestLoop_TimeoutSameNameReplaces(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	var fired []string
	loop.SetTimeout("read", time.Second, func(ctx context.Context) { fired = append(fired, "first") })
	loop.SetTimeout("read", 2*time.Second, func(ctx context.Context) { fired = append(fired, "second") })

	clock.Advance(time.Second)
	loop.Tick(ctx)
	assert.Empty(t, fired)

	clock.Advance(time.Second)
	loop.Tick(ctx)
	assert.Equal(t, []string{"second"}, fired)
}

func TestLoop_CancelTimeout(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	loop.SetTimeout("read", time.Second, func(ctx context.Context) { t.Fatal("cancelled timeout fired") })

	assert.True(t, loop.CancelTimeout("read"))
	assert.False(t, loop.CancelTimeout("read"))
	clock.Advance(time.Minute)
	assert.Equal(t, 0, loop.Tick(ctx))
}

func TestLoop_EveryRepeats(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	calls := 0
	require.NoError(t, loop.Every("update", 5*time.Second, func(ctx context.Context) { calls++ }))

	for i := 0; i < 3; i++ {
		clock.Advance(5 * time.Second)
		loop.Tick(ctx)
	}
	assert.Equal(t, 3, calls)

	// a long stall runs the poller once, not once per missed period
	clock.Advance(time.Minute)
	loop.Tick(ctx)
	assert.Equal(t, 4, calls)
}

func TestLoop_EveryInvalidInterval(t *testing.T) {
	loop, _ := newTestLoop()
	assert.Error(t, loop.Every("update", 0, func(ctx context.Context) {}))
}

func TestLoop_DueOrder(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	var order []string
	loop.SetTimeout("b", 2*time.Second, func(ctx context.Context) { order = append(order, "b") })
	loop.SetTimeout("a", 3*time.Second, func(ctx context.Context) { order = append(order, "a") })
	loop.SetTimeout("c", 2*time.Second, func(ctx context.Context) { order = append(order, "c") })

	clock.Advance(5 * time.Second)
	assert.Equal(t, 3, loop.Tick(ctx))
	assert.Equal(t, []string{"b", "c", "a"}, order)
}

func TestLoop_CallbackSchedulesForNextTick(t *testing.T) {
	loop, clock := newTestLoop()
	ctx := context.Background()
	var order []string
	loop.SetTimeout("trigger", 0, func(ctx context.Context) {
		order = append(order, "trigger")
		loop.SetTimeout("read", 0, func(ctx context.Context) { order = append(order, "read") })
	})

	loop.Tick(ctx)
	assert.Equal(t, []string{"trigger"}, order)
	clock.Advance(time.Millisecond)
	loop.Tick(ctx)
	assert.Equal(t, []string{"trigger", "read"}, order)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	loop := New(WithResolution(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan struct{})
	loop.SetTimeout("once", 0, func(ctx context.Context) { close(fired) })

	done := make(chan error)
	go func() {
		done <- loop.Run(ctx)
	}()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
