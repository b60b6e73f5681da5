package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/soil/chirp"
	"github.com/mklimuk/soil/cmd/chirp/console"
	"github.com/mklimuk/soil/config"
	"github.com/mklimuk/soil/sink"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "poll the sensor and log readings until interrupted",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(commandContext(c, cfg), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, cfg, config.Sinks{
			Moisture:    &sink.Log{Channel: "moisture", Unit: "%"},
			Temperature: &sink.Log{Channel: "temperature", Unit: "°C"},
			Light:       &sink.Log{Channel: "illuminance", Unit: "lx"},
			Version:     &sink.Log{Channel: "version"},
		})
		if err != nil {
			return console.Exit(1, "could not open sensor: %s", console.Red(err))
		}
		defer s.Close()

		err = s.prepare(ctx)
		if err != nil {
			return console.Exit(1, "sensor setup failed: %s", console.Red(err))
		}
		err = s.loop.Every("chirp/update", cfg.UpdateInterval, func(ctx context.Context) {
			err := s.sensor.Update(ctx)
			switch {
			case err == nil:
			case errors.Is(err, chirp.ErrBusy), errors.Is(err, chirp.ErrCyclePending):
				slog.Debug("update skipped", "reason", err)
			default:
				slog.Warn("update failed", "error", err)
			}
		})
		if err != nil {
			return console.Exit(1, "could not schedule updates: %s", console.Red(err))
		}
		console.PInfof(console.PictoSeedling, "polling sensor at %s every %s",
			console.White(fmt.Sprintf("%#04x", s.sensor.BusAddress())), console.White(cfg.UpdateInterval))

		err = s.loop.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return console.Exit(1, "polling stopped: %s", console.Red(err))
		}
		console.PInfof(console.PictoFinish, "stopped")
		return nil
	},
}
