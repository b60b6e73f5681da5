package chirp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/soil/snsctx"
)

func TestRegister_Map(t *testing.T) {
	tests := []struct {
		reg      Register
		name     string
		width    int
		readable bool
	}{
		{RegCapacitance, "GET_CAPACITANCE", 2, true},
		{RegSetAddress, "SET_ADDRESS", 1, false},
		{RegAddress, "GET_ADDRESS", 1, true},
		{RegMeasureLight, "MEASURE_LIGHT", 0, false},
		{RegLight, "GET_LIGHT", 2, true},
		{RegTemperature, "GET_TEMPERATURE", 2, true},
		{RegReset, "RESET", 0, false},
		{RegVersion, "GET_VERSION", 1, true},
		{RegSleep, "SLEEP", 0, false},
		{RegBusy, "GET_BUSY", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.reg.String())
			assert.Equal(t, tt.width, tt.reg.Width())
			assert.Equal(t, tt.readable, tt.reg.Readable())
		})
	}
	assert.Equal(t, "REG(0x42)", Register(0x42).String())
}

func TestRegister_ReadBigEndian(t *testing.T) {
	h := newHarness(t)
	ctx := snsctx.SetVerbose(context.Background(), true)
	expectRead(h.bus, testAddr, RegCapacitance, 0x12, 0x34)

	raw, err := h.sensor.readUint16(ctx, RegCapacitance)

	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), raw)
	h.bus.AssertExpectations(t)
}

func TestRegister_Misuse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sensor.readRegister(ctx, RegReset)
	assert.ErrorContains(t, err, "not readable")
	assert.ErrorContains(t, h.sensor.writeRegister(ctx, RegBusy), "not writable")
	assert.ErrorContains(t, h.sensor.writeRegister(ctx, RegSetAddress), "expects 1 payload bytes")
	assert.ErrorContains(t, h.sensor.writeRegister(ctx, RegSleep, 0x01), "expects 0 payload bytes")
	h.bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestChirp_ResetAndSleep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	expectWrite(h.bus, testAddr, RegReset)
	expectWrite(h.bus, testAddr, RegSleep)

	require.NoError(t, h.sensor.Reset(ctx))
	require.NoError(t, h.sensor.Sleep(ctx))
	h.bus.AssertExpectations(t)
}
