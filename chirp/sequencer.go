package chirp

import (
	"context"
	"fmt"
	"log/slog"
)

// Update runs one polling cycle: busy gate, then moisture, temperature and light in that
// order. A failed busy read counts as busy. The first failing channel aborts the cycle.
func (s *Chirp) Update(ctx context.Context) error {
	if s.status.IsFailed() {
		return ErrFailed
	}
	if s.lightPending {
		s.status.SetWarning("light measurement still pending")
		return ErrCyclePending
	}

	busy, err := s.readBusy(ctx)
	if err != nil {
		s.busy = true
		s.status.SetWarning("failed to read busy status")
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	s.busy = busy
	if busy {
		slog.Debug("sensor is busy", "addr", fmt.Sprintf("%#04x", s.addr))
		s.status.SetWarning("sensor is busy")
		return ErrBusy
	}
	s.status.ClearWarning()

	if s.config.Moisture.Present() {
		if err := s.readMoisture(ctx); err != nil {
			s.status.SetError("failed to read moisture")
			return err
		}
	}
	if s.config.Temperature.Present() {
		if err := s.readTemperature(ctx); err != nil {
			s.status.SetError("failed to read temperature")
			return err
		}
	}
	if s.config.Light.Present() {
		if err := s.measureLight(ctx); err != nil {
			s.status.SetError("failed to start light measurement")
			return err
		}
	}
	s.status.ClearError()
	s.status.ClearWarning()
	return nil
}

func (s *Chirp) readBusy(ctx context.Context) (bool, error) {
	raw, err := s.readUint8(ctx, RegBusy)
	if err != nil {
		return true, err
	}
	return raw == 1, nil
}

func (s *Chirp) readMoisture(ctx context.Context) error {
	raw, err := s.readUint16(ctx, RegCapacitance)
	if err != nil {
		return err
	}
	moisture := s.config.Calibration.Moisture(raw)
	slog.Debug("moisture", "raw", raw, "value", moisture)
	if s.started {
		s.config.Moisture.publish(moisture)
	}
	return nil
}

func (s *Chirp) readTemperature(ctx context.Context) error {
	raw, err := s.readUint16(ctx, RegTemperature)
	if err != nil {
		return err
	}
	temp := s.config.Calibration.Temperature(int16(raw))
	slog.Debug("temperature", "raw", raw, "value", temp)
	if s.started {
		s.config.Temperature.publish(temp)
	}
	return nil
}

// measureLight triggers a conversion, gives the bus back and defers the result read.
func (s *Chirp) measureLight(ctx context.Context) error {
	err := s.writeRegister(ctx, RegMeasureLight)
	if err != nil {
		return err
	}
	if err := s.transport.Release(ctx); err != nil {
		slog.Warn("could not release bus after light trigger", "addr", fmt.Sprintf("%#04x", s.addr), "error", err)
	}
	s.lightPending = true
	s.scheduler.SetTimeout(s.lightTaskName(), s.config.LightDelay, s.readLight)
	return nil
}

func (s *Chirp) lightTaskName() string {
	return fmt.Sprintf("chirp@%#04x/read_light", s.addr)
}

// readLight is the deferred half of the light measurement.
func (s *Chirp) readLight(ctx context.Context) {
	s.lightPending = false
	if s.status.IsFailed() {
		return
	}
	raw, err := s.readUint16(ctx, RegLight)
	if err != nil {
		slog.Error("light read failed", "addr", fmt.Sprintf("%#04x", s.addr), "error", err)
		s.status.SetError("failed to read light")
		return
	}
	lux := s.config.Calibration.Lux(raw)
	slog.Debug("light", "raw", raw, "value", lux)
	if s.started {
		s.config.Light.publish(lux)
	}
	if s.config.SleepAfterLight {
		if err := s.Sleep(ctx); err != nil {
			slog.Warn("could not put sensor to sleep", "error", err)
			s.status.SetWarning("failed to clear registers")
		}
	}
}
