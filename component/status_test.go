package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_WarningAndError(t *testing.T) {
	s := NewStatus("chirp")
	assert.False(t, s.HasWarning())
	assert.False(t, s.HasError())

	s.SetWarning("sensor is busy")
	s.SetError("failed to read moisture")
	assert.True(t, s.HasWarning())
	assert.True(t, s.HasError())
	assert.Equal(t, "sensor is busy", s.Warning())
	assert.Equal(t, "failed to read moisture", s.Error())

	s.ClearWarning()
	assert.False(t, s.HasWarning())
	assert.True(t, s.HasError())

	s.ClearError()
	assert.False(t, s.HasError())
	assert.Equal(t, "", s.Error())
}

func TestStatus_FailedIsTerminal(t *testing.T) {
	s := NewStatus("chirp")
	s.MarkFailed()
	s.ClearError()
	s.ClearWarning()
	assert.True(t, s.IsFailed())
}

func TestStatus_Snapshot(t *testing.T) {
	s := NewStatus("chirp")
	s.SetError("failed to write address")
	assert.Equal(t, Snapshot{Name: "chirp", Error: "failed to write address"}, s.Snapshot())
}
