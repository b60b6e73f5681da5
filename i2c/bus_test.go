package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/soil/chirp"
	"github.com/mklimuk/soil/scheduler"
	"github.com/mklimuk/soil/sink"
)

func TestGenericBus_ReadWrite(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x20, W: []byte{0x07}},
			{Addr: 0x20, R: []byte{0x26}},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x20, []byte{0x07}))
	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x20, buf))
	assert.Equal(t, []byte{0x26}, buf)
	assert.NoError(t, bus.Release(ctx))
	assert.Equal(t, "playback", bus.String())
	assert.NoError(t, bus.Close())
}

func TestGenericBus_Errors(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x20, W: []byte{0x09}}},
		DontPanic: true,
	}
	bus := NewBus(playback)

	err := bus.WriteToAddr(context.Background(), 0x21, []byte{0x09})
	assert.ErrorContains(t, err, "could not write to i2c address 0x21")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.ReadFromAddr(ctx, 0x20, make([]byte, 1)), context.Canceled)
	assert.Equal(t, 0, playback.Count)
}

func TestGenericBus_ChirpSetup(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// GET_VERSION
			{Addr: 0x20, W: []byte{0x07}},
			{Addr: 0x20, R: []byte{0x26}},
			// GET_BUSY
			{Addr: 0x20, W: []byte{0x09}},
			{Addr: 0x20, R: []byte{0x00}},
			// GET_CAPACITANCE
			{Addr: 0x20, W: []byte{0x00}},
			{Addr: 0x20, R: []byte{0x01, 0xA4}},
		},
		DontPanic: true,
	}
	moisture := sink.NewLast()
	version := sink.NewLast()
	s, err := chirp.New(NewBus(playback), scheduler.New(), chirp.WithMoisture(moisture), chirp.WithVersion(version))
	require.NoError(t, err)

	require.NoError(t, s.Setup(context.Background()))

	assert.True(t, s.Started())
	_, ok := moisture.Value()
	assert.False(t, ok, "validation cycle does not publish")
	v, ok := version.Value()
	assert.True(t, ok)
	assert.InDelta(t, 0.38, v, 1e-6)
	assert.NoError(t, playback.Close())
}
