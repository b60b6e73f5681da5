package chirp

import (
	"context"
	"fmt"
	"io"

	"github.com/mklimuk/soil"
	"github.com/mklimuk/soil/component"
)

var _ soil.Component = &MockSoilSensor{}

// ReadingFunc produces one value of a measurement channel or an error.
type ReadingFunc func(ctx context.Context) (float32, error)

// MockBehavior holds one behavior function per channel. A nil function leaves the
// channel silent even when a sink is bound.
type MockBehavior struct {
	Moisture    ReadingFunc
	Temperature ReadingFunc
	Light       ReadingFunc
	Version     ReadingFunc
}

// MockSoilSensor is a hardware-free stand-in for a Chirp. It follows the same lifecycle
// (Setup validates, Update fails fast, nothing is published before Setup succeeds) but
// values come from behavior functions and light is published without a delay.
type MockSoilSensor struct {
	behavior MockBehavior
	config   Opts
	status   soil.Status
	started  bool
}

// NewMockSoilSensor creates a mock sensor. Sinks and status are bound with the regular
// options (WithMoisture, WithStatus, ...).
//
// Example usage:
//
//	// Static values
//	sensor := NewMockSoilSensor(MockBehavior{
//		Moisture: func(ctx context.Context) (float32, error) { return 42, nil },
//	}, WithMoisture(moistureSink))
//
//	// Drying soil
//	moisture := float32(80)
//	sensor := NewMockSoilSensor(MockBehavior{
//		Moisture: func(ctx context.Context) (float32, error) {
//			moisture -= 0.5
//			return moisture, nil
//		},
//	}, WithMoisture(moistureSink))
//
//	// Error simulation
//	sensor := NewMockSoilSensor(MockBehavior{
//		Temperature: func(ctx context.Context) (float32, error) {
//			return 0, fmt.Errorf("sensor malfunction")
//		},
//	}, WithTemperature(temperatureSink))
func NewMockSoilSensor(behavior MockBehavior, opts ...Opt) *MockSoilSensor {
	config := Opts{
		Address:        DefaultAddress,
		Calibration:    DefaultCalibration,
		LightDelay:     DefaultLightDelay,
		UpdateInterval: DefaultUpdateInterval,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Status == nil {
		config.Status = component.NewStatus("chirp-mock")
	}
	return &MockSoilSensor{
		behavior: behavior,
		config:   config,
		status:   config.Status,
	}
}

func (m *MockSoilSensor) Setup(ctx context.Context) error {
	if m.status.IsFailed() {
		return ErrFailed
	}
	if m.started {
		return nil
	}
	var version float32
	if m.behavior.Version != nil {
		v, err := m.behavior.Version(ctx)
		if err != nil {
			m.status.SetError("failed to read version")
			m.status.MarkFailed()
			return fmt.Errorf("chirp: setup failed: %w", err)
		}
		version = v
	}
	if err := m.Update(ctx); err != nil {
		m.status.MarkFailed()
		return fmt.Errorf("chirp: validation cycle failed: %w", err)
	}
	m.started = true
	if m.behavior.Version != nil {
		m.config.Version.publish(version)
	}
	return nil
}

func (m *MockSoilSensor) Update(ctx context.Context) error {
	if m.status.IsFailed() {
		return ErrFailed
	}
	channels := []struct {
		channel Channel
		read    ReadingFunc
		errMsg  string
	}{
		{m.config.Moisture, m.behavior.Moisture, "failed to read moisture"},
		{m.config.Temperature, m.behavior.Temperature, "failed to read temperature"},
		{m.config.Light, m.behavior.Light, "failed to read light"},
	}
	for _, c := range channels {
		if !c.channel.Present() || c.read == nil {
			continue
		}
		value, err := c.read(ctx)
		if err != nil {
			m.status.SetError(c.errMsg)
			return err
		}
		if m.started {
			c.channel.publish(value)
		}
	}
	m.status.ClearError()
	m.status.ClearWarning()
	return nil
}

func (m *MockSoilSensor) Started() bool {
	return m.started
}

func (m *MockSoilSensor) Status() soil.Status {
	return m.status
}

func (m *MockSoilSensor) DumpConfig(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Chirp soil moisture sensor (mock)\n  Address: %#04x\n  Moisture: %s\n  Temperature: %s\n  Light: %s\n  Version: %s\n",
		m.config.Address, enabled(m.config.Moisture), enabled(m.config.Temperature), enabled(m.config.Light), enabled(m.config.Version))
	return err
}
