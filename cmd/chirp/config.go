package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/soil/cmd/chirp/console"
	"github.com/mklimuk/soil/config"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "print the effective configuration",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "probe", Usage: "run sensor setup and print the driver state"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		data, err := cfg.Marshal()
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Printf("%s\n", data)
		if !c.Bool("probe") {
			return nil
		}

		ctx := commandContext(c, cfg)
		s, err := openSession(ctx, cfg, config.Sinks{})
		if err != nil {
			return console.Exit(1, "could not open sensor: %s", console.Red(err))
		}
		defer s.Close()
		if err := s.sensor.Setup(ctx); err != nil {
			console.Warnf("setup failed: %s", err)
		}
		return s.sensor.DumpConfig(console.Output())
	},
}
