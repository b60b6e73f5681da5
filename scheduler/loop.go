// Package scheduler provides a single-threaded cooperative loop for polled components.
//
// Periodic pollers and named one-shot timeouts are kept as pending task records. Tick runs
// every task that is due, in due-time order, on the caller's goroutine; Run calls Tick at a
// fixed resolution until the context is done. Callbacks never run concurrently with each
// other, so drivers scheduled on the same Loop need no locking.
package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mklimuk/soil"
)

var _ soil.Scheduler = &Loop{}

const DefaultResolution = 10 * time.Millisecond

type task struct {
	name     string
	due      time.Time
	interval time.Duration // zero for one-shot timeouts
	fn       soil.Func
}

type LoopOpts struct {
	Resolution time.Duration
	Clock      func() time.Time
}

type LoopOpt func(*LoopOpts)

// WithResolution sets how often Run checks for due tasks.
func WithResolution(d time.Duration) LoopOpt {
	return func(o *LoopOpts) {
		o.Resolution = d
	}
}

// WithClock replaces time.Now; used to drive the loop deterministically.
func WithClock(now func() time.Time) LoopOpt {
	return func(o *LoopOpts) {
		o.Clock = now
	}
}

type Loop struct {
	mx       sync.Mutex
	config   LoopOpts
	timeouts map[string]*task
	pollers  map[string]*task
}

func New(opts ...LoopOpt) *Loop {
	config := LoopOpts{
		Resolution: DefaultResolution,
		Clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Resolution <= 0 {
		config.Resolution = DefaultResolution
	}
	return &Loop{
		config:   config,
		timeouts: make(map[string]*task),
		pollers:  make(map[string]*task),
	}
}

// Every registers fn to run every interval, first run one interval from now.
// Registering a poller with an existing name replaces it.
func (l *Loop) Every(name string, interval time.Duration, fn soil.Func) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s for %q", interval, name)
	}
	l.mx.Lock()
	defer l.mx.Unlock()
	l.pollers[name] = &task{
		name:     name,
		due:      l.config.Clock().Add(interval),
		interval: interval,
		fn:       fn,
	}
	return nil
}

// SetTimeout runs fn once after delay. A pending timeout with the same name is replaced.
func (l *Loop) SetTimeout(name string, delay time.Duration, fn soil.Func) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if _, ok := l.timeouts[name]; ok {
		slog.Debug("replacing pending timeout", "name", name)
	}
	l.timeouts[name] = &task{
		name: name,
		due:  l.config.Clock().Add(delay),
		fn:   fn,
	}
}

// CancelTimeout drops a pending timeout and reports whether one existed.
func (l *Loop) CancelTimeout(name string) bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	_, ok := l.timeouts[name]
	delete(l.timeouts, name)
	return ok
}

// Pending reports whether a timeout with the given name is waiting to fire.
func (l *Loop) Pending(name string) bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	_, ok := l.timeouts[name]
	return ok
}

// Tick runs all tasks due at the current clock time and returns how many ran.
// Tasks scheduled by a callback are not run before the next Tick.
func (l *Loop) Tick(ctx context.Context) int {
	l.mx.Lock()
	now := l.config.Clock()
	var due []task
	for name, t := range l.timeouts {
		if !t.due.After(now) {
			due = append(due, *t)
			delete(l.timeouts, name)
		}
	}
	for _, t := range l.pollers {
		if !t.due.After(now) {
			due = append(due, *t)
			// skip missed periods instead of bursting
			for !t.due.After(now) {
				t.due = t.due.Add(t.interval)
			}
		}
	}
	l.mx.Unlock()

	slices.SortFunc(due, func(a, b task) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	for _, t := range due {
		if ctx.Err() != nil {
			break
		}
		t.fn(ctx)
	}
	return len(due)
}

// Run drives the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.config.Resolution)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}
