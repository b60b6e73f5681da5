package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/soil/cmd/chirp/console"
	"github.com/mklimuk/soil/component"
	"github.com/mklimuk/soil/config"
	"github.com/mklimuk/soil/sink"
)

type reading struct {
	Moisture    *float32 `yaml:"moisture,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty"`
	Illuminance *float32 `yaml:"illuminance,omitempty"`
	Version     *float32 `yaml:"version,omitempty"`

	Status component.Snapshot `yaml:"status"`
}

func lastValue(l *sink.Last) *float32 {
	v, ok := l.Value()
	if !ok {
		return nil
	}
	return &v
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "run setup and a single measurement cycle",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print the reading as yaml"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		ctx := commandContext(c, cfg)
		moisture, temperature, light, ver := sink.NewLast(), sink.NewLast(), sink.NewLast(), sink.NewLast()
		s, err := openSession(ctx, cfg, config.Sinks{Moisture: moisture, Temperature: temperature, Light: light, Version: ver})
		if err != nil {
			return console.Exit(1, "could not open sensor: %s", console.Red(err))
		}
		defer s.Close()

		err = s.prepare(ctx)
		if err != nil {
			return console.Exit(1, "sensor setup failed: %s", console.Red(err))
		}
		// the setup cycle only validates, readings come from the next one
		err = s.awaitLight(ctx)
		if err != nil {
			return console.Exit(1, "interrupted: %s", console.Red(err))
		}
		err = s.sensor.Update(ctx)
		if err != nil {
			return console.Exit(1, "measurement failed: %s", console.Red(err))
		}
		err = s.awaitLight(ctx)
		if err != nil {
			return console.Exit(1, "interrupted: %s", console.Red(err))
		}
		if s.status.HasError() {
			console.Errorf("sensor error: %s", s.status.Error())
		}

		r := reading{
			Moisture:    lastValue(moisture),
			Temperature: lastValue(temperature),
			Illuminance: lastValue(light),
			Version:     lastValue(ver),
			Status:      s.status.Snapshot(),
		}
		if c.Bool("yaml") {
			enc := yaml.NewEncoder(os.Stdout)
			defer func() { _ = enc.Close() }()
			if err := enc.Encode(r); err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
			return nil
		}
		printReading(console.PictoDroplet, "moisture", r.Moisture, "%")
		printReading(console.PictoThermometer, "temperature", r.Temperature, "°C")
		printReading(console.PictoSun, "illuminance", r.Illuminance, "lx")
		printReading(console.PictoChip, "firmware", r.Version, "")
		return nil
	},
}

func printReading(picto, name string, value *float32, unit string) {
	if value == nil {
		return
	}
	console.PInfof(picto, "%s: %s%s", name, console.White(fmt.Sprintf("%.2f", *value)), unit)
}
