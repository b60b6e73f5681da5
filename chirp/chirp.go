// Package chirp drives the Chirp I2C capacitive soil moisture sensor.
//
// The sensor reports soil capacitance, temperature and (after a triggered conversion)
// ambient light through a small register set. A Chirp is a polled component: the host
// calls Setup once and Update every polling interval on a single scheduling goroutine.
// Light conversion takes about three seconds, so Update only triggers it and the result is
// read by a deferred task on the same scheduler.
//
// Typical usage:
//
//	loop := scheduler.New()
//	s, err := chirp.New(bus, loop, chirp.WithMoisture(moistureSink), chirp.WithLight(lightSink))
//	err = s.Setup(ctx)
//	_ = loop.Every("chirp", 5*time.Second, func(ctx context.Context) { _ = s.Update(ctx) })
//	_ = loop.Run(ctx)
package chirp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/mklimuk/soil"
	"github.com/mklimuk/soil/component"
)

var _ soil.Component = &Chirp{}

const DefaultAddress = 0x20

const (
	DefaultLightDelay     = 3 * time.Second
	DefaultUpdateInterval = 5 * time.Second
)

var (
	ErrBusy           = fmt.Errorf("chirp: sensor is busy")
	ErrFailed         = fmt.Errorf("chirp: component failed")
	ErrCyclePending   = fmt.Errorf("chirp: previous measurement cycle still pending")
	ErrInvalidAddress = fmt.Errorf("chirp: invalid I2C address")
	ErrNoBus          = fmt.Errorf("chirp: no I2C bus given")
	ErrNoScheduler    = fmt.Errorf("chirp: no scheduler given")
)

// Channel is an optional output binding. An unbound channel is never read or published.
type Channel struct {
	sink    soil.Sink
	present bool
}

// Bind returns a Channel publishing to s; a nil sink yields an unbound channel.
func Bind(s soil.Sink) Channel {
	if s == nil {
		return Channel{}
	}
	return Channel{sink: s, present: true}
}

func (c Channel) Present() bool {
	return c.present
}

func (c Channel) publish(value float32) {
	if c.present {
		c.sink.Publish(value)
	}
}

type Opts struct {
	Address         byte
	Calibration     Calibration
	LightDelay      time.Duration
	UpdateInterval  time.Duration
	SleepAfterLight bool
	Status          soil.Status

	Moisture    Channel
	Temperature Channel
	Light       Channel
	Version     Channel
}

type Opt func(*Opts)

func WithAddress(addr byte) Opt {
	return func(o *Opts) {
		o.Address = addr
	}
}

func WithCalibration(c Calibration) Opt {
	return func(o *Opts) {
		o.Calibration = c
	}
}

// WithLightDelay sets the settling time between MEASURE_LIGHT and GET_LIGHT.
// Real hardware needs about 3 seconds.
func WithLightDelay(d time.Duration) Opt {
	return func(o *Opts) {
		o.LightDelay = d
	}
}

// WithUpdateInterval records the host polling interval; it is only reported by DumpConfig.
func WithUpdateInterval(d time.Duration) Opt {
	return func(o *Opts) {
		o.UpdateInterval = d
	}
}

// WithSleepAfterLight puts the sensor to sleep after every light read.
func WithSleepAfterLight(enabled bool) Opt {
	return func(o *Opts) {
		o.SleepAfterLight = enabled
	}
}

func WithStatus(status soil.Status) Opt {
	return func(o *Opts) {
		o.Status = status
	}
}

func WithMoisture(s soil.Sink) Opt {
	return func(o *Opts) {
		o.Moisture = Bind(s)
	}
}

func WithTemperature(s soil.Sink) Opt {
	return func(o *Opts) {
		o.Temperature = Bind(s)
	}
}

func WithLight(s soil.Sink) Opt {
	return func(o *Opts) {
		o.Light = Bind(s)
	}
}

func WithVersion(s soil.Sink) Opt {
	return func(o *Opts) {
		o.Version = Bind(s)
	}
}

// Chirp is not safe for concurrent use: all methods, including the deferred light read,
// are expected to run on the scheduler's goroutine.
type Chirp struct {
	transport soil.I2CBus
	scheduler soil.Scheduler
	status    soil.Status
	config    Opts

	addr         byte
	started      bool
	busy         bool
	lightPending bool
	version      byte
}

func New(transport soil.I2CBus, scheduler soil.Scheduler, opts ...Opt) (*Chirp, error) {
	if transport == nil {
		return nil, ErrNoBus
	}
	if scheduler == nil {
		return nil, ErrNoScheduler
	}
	config := Opts{
		Address:        DefaultAddress,
		Calibration:    DefaultCalibration,
		LightDelay:     DefaultLightDelay,
		UpdateInterval: DefaultUpdateInterval,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if err := validateAddress(config.Address); err != nil {
		return nil, err
	}
	if err := config.Calibration.Validate(); err != nil {
		return nil, err
	}
	if config.LightDelay <= 0 {
		config.LightDelay = DefaultLightDelay
	}
	if config.Status == nil {
		config.Status = component.NewStatus("chirp")
	}
	return &Chirp{
		transport: transport,
		scheduler: scheduler,
		status:    config.Status,
		config:    config,
		addr:      config.Address,
	}, nil
}

// Setup reads the firmware version and runs one validation cycle. A failed version read or
// a cycle that fails for any reason other than a busy sensor marks the component as
// permanently failed. Errors left on the status by earlier operations are not considered.
func (s *Chirp) Setup(ctx context.Context) error {
	if s.status.IsFailed() {
		return ErrFailed
	}
	if s.started {
		return nil
	}
	slog.Info("setting up sensor", "addr", fmt.Sprintf("%#04x", s.addr))
	version, err := s.ReadVersion(ctx)
	if err != nil {
		s.status.SetError("failed to read version")
		s.status.MarkFailed()
		return fmt.Errorf("chirp: setup failed: %w", err)
	}
	s.version = version
	slog.Info("sensor found", "addr", fmt.Sprintf("%#04x", s.addr), "firmware", fmt.Sprintf("%#04x", version))

	err = s.Update(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		// the device answered the version read, a busy flag is transient
		slog.Warn("validation cycle skipped", "error", err)
	default:
		s.status.MarkFailed()
		return fmt.Errorf("chirp: validation cycle failed: %w", err)
	}
	s.started = true
	s.config.Version.publish(FirmwareVersion(version))
	slog.Info("sensor started", "addr", fmt.Sprintf("%#04x", s.addr))
	return nil
}

// ReadVersion reads the raw firmware version register.
func (s *Chirp) ReadVersion(ctx context.Context) (byte, error) {
	return s.readUint8(ctx, RegVersion)
}

// ReadAddress reads the address the device believes it has.
func (s *Chirp) ReadAddress(ctx context.Context) (byte, error) {
	return s.readUint8(ctx, RegAddress)
}

// Reset restarts the sensor firmware.
func (s *Chirp) Reset(ctx context.Context) error {
	return s.writeRegister(ctx, RegReset)
}

// Sleep puts the sensor into low power mode until the next bus access.
func (s *Chirp) Sleep(ctx context.Context) error {
	return s.writeRegister(ctx, RegSleep)
}

// BusAddress returns the address the driver currently talks to.
func (s *Chirp) BusAddress() byte {
	return s.addr
}

func (s *Chirp) Started() bool {
	return s.started
}

// Busy returns the busy flag observed by the last cycle.
func (s *Chirp) Busy() bool {
	return s.busy
}

// LightPending reports whether a deferred light read has not fired yet.
func (s *Chirp) LightPending() bool {
	return s.lightPending
}

func (s *Chirp) Status() soil.Status {
	return s.status
}

func (s *Chirp) DumpConfig(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	c := s.config.Calibration
	_, _ = fmt.Fprintf(tw, "Chirp soil moisture sensor\n")
	_, _ = fmt.Fprintf(tw, "  Address:\t%#04x\n", s.addr)
	_, _ = fmt.Fprintf(tw, "  Update interval:\t%s\n", s.config.UpdateInterval)
	_, _ = fmt.Fprintf(tw, "  Light delay:\t%s\n", s.config.LightDelay)
	if s.version != 0 {
		_, _ = fmt.Fprintf(tw, "  Firmware version:\t%#04x\n", s.version)
	} else {
		_, _ = fmt.Fprintf(tw, "  Firmware version:\tunknown\n")
	}
	_, _ = fmt.Fprintf(tw, "  Moisture:\t%s (capacitance %d..%d)\n", enabled(s.config.Moisture), c.CapacitanceMin, c.CapacitanceMax)
	_, _ = fmt.Fprintf(tw, "  Temperature:\t%s (offset %g)\n", enabled(s.config.Temperature), c.TemperatureOffset)
	_, _ = fmt.Fprintf(tw, "  Light:\t%s (lux = %g * raw + %g)\n", enabled(s.config.Light), c.LightCoefficient, c.LightConstant)
	_, _ = fmt.Fprintf(tw, "  Version:\t%s\n", enabled(s.config.Version))
	state := "setup pending"
	switch {
	case s.status.IsFailed():
		state = "failed"
	case s.started:
		state = "started"
	}
	_, _ = fmt.Fprintf(tw, "  State:\t%s\n", state)
	return tw.Flush()
}

func enabled(c Channel) string {
	if c.Present() {
		return "enabled"
	}
	return "disabled"
}

// validateAddress accepts 7-bit addresses outside the reserved ranges.
func validateAddress(addr byte) error {
	if addr < 0x03 || addr > 0x77 {
		return fmt.Errorf("%w: %#04x is outside 0x03..0x77", ErrInvalidAddress, addr)
	}
	return nil
}
