package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/soil"
	"github.com/mklimuk/soil/adapter"
	"github.com/mklimuk/soil/chirp"
	"github.com/mklimuk/soil/component"
	"github.com/mklimuk/soil/config"
	"github.com/mklimuk/soil/i2c"
	"github.com/mklimuk/soil/scheduler"
	"github.com/mklimuk/soil/snsctx"
)

// firmware needs a moment to come back after RESET
const resetSettleTime = time.Second

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return byte(v), nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if a := c.String("adapter"); a != "" {
		cfg.Bus.Adapter = a
	}
	if d := c.String("device"); d != "" {
		cfg.Bus.Device = d
	}
	if s := c.String("addr"); s != "" {
		addr, err := parseAddress(s)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Address = addr
	}
	return cfg, cfg.Validate()
}

func commandContext(c *cli.Context, cfg config.Config) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return snsctx.SetDevice(ctx, fmt.Sprintf("%s@%#04x", cfg.Bus.Adapter, cfg.Address))
}

func openBus(ctx context.Context, cfg config.Bus) (soil.I2CBus, func() error, error) {
	switch cfg.Adapter {
	case config.AdapterPeriph:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case config.AdapterMCP2221:
		bridge := adapter.NewMCP2221()
		err := bridge.Init(ctx, adapter.DefaultSpeed)
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return bridge, func() error { return nil }, nil
	case config.AdapterGobot:
		bus, err := i2c.NewNanoPiBus(cfg.Number)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
	}
}

// session is one opened bus with a sensor driver and its scheduler.
type session struct {
	cfg    config.Config
	loop   *scheduler.Loop
	status *component.Status
	sensor *chirp.Chirp
	close  func() error
}

func openSession(ctx context.Context, cfg config.Config, sinks config.Sinks) (*session, error) {
	bus, closer, err := openBus(ctx, cfg.Bus)
	if err != nil {
		return nil, err
	}
	loop := scheduler.New()
	status := component.NewStatus(snsctx.Device(ctx))
	opts := append(cfg.Options(sinks), chirp.WithStatus(status))
	sensor, err := chirp.New(bus, loop, opts...)
	if err != nil {
		_ = closer()
		return nil, err
	}
	return &session{cfg: cfg, loop: loop, status: status, sensor: sensor, close: closer}, nil
}

// prepare moves the sensor to the configured target address, if any, and runs Setup.
func (s *session) prepare(ctx context.Context) error {
	if target, ok := s.cfg.TargetAddress(); ok && target != s.sensor.BusAddress() {
		err := s.sensor.NewI2CAddress(ctx, target)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resetSettleTime):
		}
	}
	return s.sensor.Setup(ctx)
}

// awaitLight drives the scheduler until the deferred light read has run.
func (s *session) awaitLight(ctx context.Context) error {
	for s.sensor.LightPending() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			s.loop.Tick(ctx)
		}
	}
	return nil
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		slog.Warn("could not close bus", "error", err)
	}
}
