package chirp

import "fmt"

var ErrInvalidCalibration = fmt.Errorf("chirp: invalid calibration")

// Calibration holds the raw-to-physical conversion constants.
type Calibration struct {
	// CapacitanceMin is the raw capacitance of a fully wet probe (0% moisture).
	CapacitanceMin uint16 `yaml:"min_capacity"`
	// CapacitanceMax is the raw capacitance of a dry probe (100% moisture).
	CapacitanceMax uint16 `yaml:"max_capacity"`
	// LightCoefficient is the sensor specific slope, typically negative.
	LightCoefficient float32 `yaml:"coefficient"`
	// LightConstant is the reading in direct sunlight (dark-current offset).
	LightConstant float32 `yaml:"constant"`
	// TemperatureOffset is added to every temperature reading.
	TemperatureOffset float32 `yaml:"offset"`
}

var DefaultCalibration = Calibration{
	CapacitanceMin:    290,
	CapacitanceMax:    550,
	LightCoefficient:  -1.526,
	LightConstant:     100000,
	TemperatureOffset: 0,
}

func (c Calibration) Validate() error {
	if c.CapacitanceMax <= c.CapacitanceMin {
		return fmt.Errorf("%w: max capacitance %d must be greater than min capacitance %d", ErrInvalidCalibration, c.CapacitanceMax, c.CapacitanceMin)
	}
	return nil
}

// Moisture converts raw capacitance to a percentage in [0, 100].
func (c Calibration) Moisture(raw uint16) float32 {
	if c.CapacitanceMax <= c.CapacitanceMin {
		return 0
	}
	if raw < c.CapacitanceMin {
		raw = c.CapacitanceMin
	} else if raw > c.CapacitanceMax {
		raw = c.CapacitanceMax
	}
	return float32(raw-c.CapacitanceMin) * 100 / float32(c.CapacitanceMax-c.CapacitanceMin)
}

// Temperature converts the register value, encoded in 1/256 degree units, to Celsius.
func (c Calibration) Temperature(raw int16) float32 {
	return float32(raw)/256 + c.TemperatureOffset
}

func (c Calibration) Lux(raw uint16) float32 {
	return c.LightCoefficient*float32(raw) + c.LightConstant
}

// FirmwareVersion decodes the fixed point major.minor version register.
func FirmwareVersion(raw byte) float32 {
	return float32(raw) / 100
}
