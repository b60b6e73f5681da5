package chirp

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/soil/component"
	"github.com/mklimuk/soil/sink"
)

func static(v float32) ReadingFunc {
	return func(ctx context.Context) (float32, error) {
		return v, nil
	}
}

func TestMockSoilSensor_StaticValues(t *testing.T) {
	moisture, temperature, light, version := sink.NewLast(), sink.NewLast(), sink.NewLast(), sink.NewLast()
	sensor := NewMockSoilSensor(MockBehavior{
		Moisture:    static(50),
		Temperature: static(25),
		Light:       static(98474),
		Version:     static(0.38),
	}, WithMoisture(moisture), WithTemperature(temperature), WithLight(light), WithVersion(version))
	ctx := context.Background()

	require.NoError(t, sensor.Setup(ctx))
	assert.True(t, sensor.Started())
	assert.Equal(t, 0, moisture.Count(), "validation cycle does not publish")
	v, ok := version.Value()
	assert.True(t, ok)
	assert.Equal(t, float32(0.38), v)

	require.NoError(t, sensor.Update(ctx))
	for name, tc := range map[string]struct {
		sink     *sink.Last
		expected float32
	}{
		"moisture":    {moisture, 50},
		"temperature": {temperature, 25},
		"light":       {light, 98474},
	} {
		got, ok := tc.sink.Value()
		assert.True(t, ok, name)
		assert.Equal(t, tc.expected, got, name)
	}
}

func TestMockSoilSensor_DynamicBehavior(t *testing.T) {
	moisture := sink.NewLast()
	level := float32(80)
	sensor := NewMockSoilSensor(MockBehavior{
		Moisture: func(ctx context.Context) (float32, error) {
			level -= 10
			return level, nil
		},
	}, WithMoisture(moisture))
	ctx := context.Background()

	require.NoError(t, sensor.Setup(ctx))
	require.NoError(t, sensor.Update(ctx))
	require.NoError(t, sensor.Update(ctx))

	v, _ := moisture.Value()
	assert.Equal(t, float32(60), v)
	assert.Equal(t, 2, moisture.Count())
}

func TestMockSoilSensor_ErrorHandling(t *testing.T) {
	status := component.NewStatus("mock")
	light := sink.NewLast()
	failing := false
	sensor := NewMockSoilSensor(MockBehavior{
		Temperature: func(ctx context.Context) (float32, error) {
			if failing {
				return 0, fmt.Errorf("sensor malfunction")
			}
			return 20, nil
		},
		Light: static(100),
	}, WithTemperature(sink.NewLast()), WithLight(light), WithStatus(status))
	ctx := context.Background()
	require.NoError(t, sensor.Setup(ctx))

	failing = true
	err := sensor.Update(ctx)

	assert.EqualError(t, err, "sensor malfunction")
	assert.Equal(t, "failed to read temperature", status.Error())
	assert.Equal(t, 0, light.Count(), "light is not attempted after a failed channel")
	assert.False(t, status.IsFailed())

	failing = false
	require.NoError(t, sensor.Update(ctx))
	assert.False(t, status.HasError())
	assert.Equal(t, 1, light.Count())
}

func TestMockSoilSensor_VersionFailureIsFatal(t *testing.T) {
	sensor := NewMockSoilSensor(MockBehavior{
		Version: func(ctx context.Context) (float32, error) {
			return 0, fmt.Errorf("no answer")
		},
	})
	ctx := context.Background()

	assert.Error(t, sensor.Setup(ctx))
	assert.True(t, sensor.Status().IsFailed())
	assert.ErrorIs(t, sensor.Update(ctx), ErrFailed)
	assert.ErrorIs(t, sensor.Setup(ctx), ErrFailed)
}

func TestMockSoilSensor_ContextUsage(t *testing.T) {
	type contextKey string
	key := contextKey("test")
	var received context.Context
	sensor := NewMockSoilSensor(MockBehavior{
		Moisture: func(ctx context.Context) (float32, error) {
			received = ctx
			return 1, nil
		},
	}, WithMoisture(sink.NewLast()))

	require.NoError(t, sensor.Setup(context.WithValue(context.Background(), key, "test-value")))

	assert.Equal(t, "test-value", received.Value(key))
}

func TestMockSoilSensor_DumpConfig(t *testing.T) {
	sensor := NewMockSoilSensor(MockBehavior{}, WithAddress(0x05), WithLight(sink.NewLast()))
	var out bytes.Buffer

	require.NoError(t, sensor.DumpConfig(&out))

	assert.Contains(t, out.String(), "Address: 0x05")
	assert.Contains(t, out.String(), "Light: enabled")
	assert.Contains(t, out.String(), "Moisture: disabled")
}
