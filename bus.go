package soil

import (
	"context"
	"fmt"
	"io"
	"time"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes to a device on a shared bus. Release hands the bus back to
// other users between transactions that belong together (e.g. trigger then read).
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Func is a unit of work run by a Scheduler on its execution context.
type Func func(ctx context.Context)

// Scheduler runs deferred one-shot work. Scheduling twice with the same name replaces the
// pending task instead of stacking a second one.
type Scheduler interface {
	SetTimeout(name string, delay time.Duration, fn Func)
}

// Status is the host's component health indicator.
type Status interface {
	SetWarning(msg string)
	ClearWarning()
	SetError(msg string)
	ClearError()
	MarkFailed()
	HasError() bool
	IsFailed() bool
}

// Sink receives published readings of one measurement channel.
type Sink interface {
	Publish(value float32)
}

// Component is a polled peripheral driver.
type Component interface {
	Setup(ctx context.Context) error
	Update(ctx context.Context) error
	DumpConfig(w io.Writer) error
}
