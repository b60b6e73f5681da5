package sink

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunc(t *testing.T) {
	var got []float32
	s := Func(func(v float32) { got = append(got, v) })
	s.Publish(1.5)
	s.Publish(2)
	assert.Equal(t, []float32{1.5, 2}, got)
}

func TestLast(t *testing.T) {
	l := NewLast()
	_, ok := l.Value()
	assert.False(t, ok)
	assert.True(t, l.UpdatedAt().IsZero())

	l.Publish(25)
	l.Publish(50)
	v, ok := l.Value()
	assert.True(t, ok)
	assert.Equal(t, float32(50), v)
	assert.Equal(t, 2, l.Count())
	assert.False(t, l.UpdatedAt().IsZero())
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := &Log{Channel: "moisture", Unit: "%", Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	l.Publish(50)
	assert.Contains(t, buf.String(), "channel=moisture")
	assert.Contains(t, buf.String(), "value=50")
}
