// Package config loads the YAML description of a Chirp sensor deployment.
//
// A measurement channel is enabled by the presence of its section:
//
//	bus:
//	  adapter: periph
//	  device: /dev/i2c-1
//	address: 0x20
//	update_interval: 5s
//	moisture:
//	  calibration:
//	    min_capacity: 290
//	    max_capacity: 550
//	temperature: {}
//	illuminance:
//	  delay: 3s
//	version:
//	  address: 0x21
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/soil"
	"github.com/mklimuk/soil/chirp"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	AdapterPeriph  = "periph"
	AdapterMCP2221 = "mcp2221"
	AdapterGobot   = "gobot"
)

type Bus struct {
	// Adapter selects the bus backend: periph, mcp2221 or gobot.
	Adapter string `yaml:"adapter"`
	// Device is the periph bus name, e.g. /dev/i2c-1 or "1".
	Device string `yaml:"device,omitempty"`
	// Number is the gobot bus number.
	Number int `yaml:"number,omitempty"`
}

type MoistureCalibration struct {
	MinCapacity *uint16 `yaml:"min_capacity,omitempty"`
	MaxCapacity *uint16 `yaml:"max_capacity,omitempty"`
}

type Moisture struct {
	Calibration MoistureCalibration `yaml:"calibration"`
}

type TemperatureCalibration struct {
	Offset float32 `yaml:"offset"`
}

type Temperature struct {
	Calibration TemperatureCalibration `yaml:"calibration"`
}

type LightCalibration struct {
	Coefficient *float32 `yaml:"coefficient,omitempty"`
	Constant    *float32 `yaml:"constant,omitempty"`
}

type Illuminance struct {
	Calibration LightCalibration `yaml:"calibration"`
	Delay       time.Duration    `yaml:"delay,omitempty"`
	// SleepAfterRead puts the sensor to sleep once the light value was read.
	SleepAfterRead bool `yaml:"sleep_after_read,omitempty"`
}

type Version struct {
	// Address, when set, is applied to the sensor before setup.
	Address byte `yaml:"address,omitempty"`
}

type Config struct {
	Bus            Bus           `yaml:"bus"`
	Address        byte          `yaml:"address"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	Moisture       *Moisture     `yaml:"moisture,omitempty"`
	Temperature    *Temperature  `yaml:"temperature,omitempty"`
	Illuminance    *Illuminance  `yaml:"illuminance,omitempty"`
	Version        *Version      `yaml:"version,omitempty"`
}

// Default returns a configuration with all channels enabled and default calibration.
func Default() Config {
	return Config{
		Bus:            Bus{Adapter: AdapterPeriph, Device: "/dev/i2c-1"},
		Address:        chirp.DefaultAddress,
		UpdateInterval: chirp.DefaultUpdateInterval,
		Moisture:       &Moisture{},
		Temperature:    &Temperature{},
		Illuminance:    &Illuminance{Delay: chirp.DefaultLightDelay},
	}
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data, fills in defaults and validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bus.Adapter == "" {
		c.Bus.Adapter = AdapterPeriph
	}
	if c.Bus.Adapter == AdapterPeriph && c.Bus.Device == "" {
		c.Bus.Device = "/dev/i2c-1"
	}
	if c.Address == 0 {
		c.Address = chirp.DefaultAddress
	}
	if c.UpdateInterval == 0 {
		c.UpdateInterval = chirp.DefaultUpdateInterval
	}
	if c.Illuminance != nil && c.Illuminance.Delay == 0 {
		c.Illuminance.Delay = chirp.DefaultLightDelay
	}
}

func (c Config) Validate() error {
	switch c.Bus.Adapter {
	case AdapterPeriph, AdapterMCP2221, AdapterGobot:
	default:
		return fmt.Errorf("%w: unknown bus adapter %q", ErrInvalid, c.Bus.Adapter)
	}
	if err := validateAddress("address", c.Address); err != nil {
		return err
	}
	if c.Version != nil && c.Version.Address != 0 {
		if err := validateAddress("version.address", c.Version.Address); err != nil {
			return err
		}
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("%w: update_interval must be positive, got %s", ErrInvalid, c.UpdateInterval)
	}
	if c.Illuminance != nil && c.Illuminance.Delay < 0 {
		return fmt.Errorf("%w: illuminance.delay must be positive, got %s", ErrInvalid, c.Illuminance.Delay)
	}
	if err := c.Calibration().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func validateAddress(field string, addr byte) error {
	if addr < 0x03 || addr > 0x77 {
		return fmt.Errorf("%w: %s %#04x is outside 0x03..0x77", ErrInvalid, field, addr)
	}
	return nil
}

// Calibration merges configured values over chirp.DefaultCalibration.
func (c Config) Calibration() chirp.Calibration {
	cal := chirp.DefaultCalibration
	if c.Moisture != nil {
		if v := c.Moisture.Calibration.MinCapacity; v != nil {
			cal.CapacitanceMin = *v
		}
		if v := c.Moisture.Calibration.MaxCapacity; v != nil {
			cal.CapacitanceMax = *v
		}
	}
	if c.Temperature != nil {
		cal.TemperatureOffset = c.Temperature.Calibration.Offset
	}
	if c.Illuminance != nil {
		if v := c.Illuminance.Calibration.Coefficient; v != nil {
			cal.LightCoefficient = *v
		}
		if v := c.Illuminance.Calibration.Constant; v != nil {
			cal.LightConstant = *v
		}
	}
	return cal
}

// TargetAddress returns the address the sensor should be moved to, if any.
func (c Config) TargetAddress() (byte, bool) {
	if c.Version == nil || c.Version.Address == 0 {
		return 0, false
	}
	return c.Version.Address, true
}

// Sinks are the output bindings for the four measurement channels.
type Sinks struct {
	Moisture    soil.Sink
	Temperature soil.Sink
	Light       soil.Sink
	Version     soil.Sink
}

// Options translates the configuration into driver options. Only configured channels
// are bound to their sink.
func (c Config) Options(sinks Sinks) []chirp.Opt {
	opts := []chirp.Opt{
		chirp.WithAddress(c.Address),
		chirp.WithCalibration(c.Calibration()),
		chirp.WithUpdateInterval(c.UpdateInterval),
	}
	if c.Moisture != nil {
		opts = append(opts, chirp.WithMoisture(sinks.Moisture))
	}
	if c.Temperature != nil {
		opts = append(opts, chirp.WithTemperature(sinks.Temperature))
	}
	if c.Illuminance != nil {
		opts = append(opts,
			chirp.WithLight(sinks.Light),
			chirp.WithLightDelay(c.Illuminance.Delay),
			chirp.WithSleepAfterLight(c.Illuminance.SleepAfterRead),
		)
	}
	if c.Version != nil {
		opts = append(opts, chirp.WithVersion(sinks.Version))
	}
	return opts
}

// Marshal renders the configuration back to YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("could not encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("could not encode config: %w", err)
	}
	return buf.Bytes(), nil
}
