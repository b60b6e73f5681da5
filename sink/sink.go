package sink

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/soil"
)

var (
	_ soil.Sink = Func(nil)
	_ soil.Sink = &Last{}
	_ soil.Sink = &Log{}
)

// Func adapts a plain function to soil.Sink.
type Func func(value float32)

func (f Func) Publish(value float32) {
	f(value)
}

// Last keeps the most recent published value. It is safe for concurrent use, so readers
// outside the scheduling goroutine (dashboards, CLI output) can poll it.
type Last struct {
	mx    sync.RWMutex
	value float32
	at    time.Time
	count int
	now   func() time.Time
}

func NewLast() *Last {
	return &Last{now: time.Now}
}

func (l *Last) Publish(value float32) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.value = value
	l.count++
	if l.now != nil {
		l.at = l.now()
	}
}

// Value returns the last value and whether anything was ever published.
func (l *Last) Value() (float32, bool) {
	l.mx.RLock()
	defer l.mx.RUnlock()
	return l.value, l.count > 0
}

func (l *Last) UpdatedAt() time.Time {
	l.mx.RLock()
	defer l.mx.RUnlock()
	return l.at
}

// Count returns how many values were published.
func (l *Last) Count() int {
	l.mx.RLock()
	defer l.mx.RUnlock()
	return l.count
}

// Log publishes readings as structured log records.
type Log struct {
	Channel string
	Unit    string
	Logger  *slog.Logger
}

func (l *Log) Publish(value float32) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reading", "channel", l.Channel, "value", value, "unit", l.Unit)
}
