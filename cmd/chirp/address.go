package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/soil/cmd/chirp/console"
	"github.com/mklimuk/soil/config"
)

var addressCmd = cli.Command{
	Name:      "address",
	Usage:     "show or change the sensor I2C address",
	ArgsUsage: "[new address]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		ctx := commandContext(c, cfg)
		s, err := openSession(ctx, cfg, config.Sinks{})
		if err != nil {
			return console.Exit(1, "could not open sensor: %s", console.Red(err))
		}
		defer s.Close()

		current, err := s.sensor.ReadAddress(ctx)
		if err != nil {
			return console.Exit(1, "could not read address: %s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "sensor at %s reports address %s",
			console.White(fmt.Sprintf("%#04x", s.sensor.BusAddress())), console.White(fmt.Sprintf("%#04x", current)))
		if c.NArg() == 0 {
			return nil
		}

		target, err := parseAddress(c.Args().First())
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("move sensor from %#04x to %#04x?", s.sensor.BusAddress(), target))
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		err = s.sensor.NewI2CAddress(ctx, target)
		if err != nil {
			return console.Exit(1, "address change failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoFinish, "sensor now answers at %s", console.Green(fmt.Sprintf("%#04x", s.sensor.BusAddress())))
		return nil
	},
}
