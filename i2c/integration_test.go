//go:build integration

package i2c

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/soil/chirp"
	"github.com/mklimuk/soil/scheduler"
	"github.com/mklimuk/soil/sink"
)

// Needs a Chirp sensor at the default address on CHIRP_BUS (defaults to /dev/i2c-1).
func TestChirpOnHostBus(t *testing.T) {
	dev := os.Getenv("CHIRP_BUS")
	if dev == "" {
		dev = "/dev/i2c-1"
	}
	bus, err := NewGenericBus(dev)
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	loop := scheduler.New()
	moisture := sink.NewLast()
	light := sink.NewLast()
	s, err := chirp.New(bus, loop, chirp.WithMoisture(moisture), chirp.WithLight(light))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, s.Setup(ctx))
	for s.LightPending() {
		time.Sleep(100 * time.Millisecond)
		loop.Tick(ctx)
	}
	require.NoError(t, s.Update(ctx))
	for s.LightPending() {
		time.Sleep(100 * time.Millisecond)
		loop.Tick(ctx)
	}

	m, ok := moisture.Value()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, m, float32(0))
	assert.LessOrEqual(t, m, float32(100))
	_, ok = light.Value()
	assert.True(t, ok)
}
