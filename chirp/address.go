package chirp

import (
	"context"
	"fmt"
	"log/slog"
)

// NewI2CAddress moves the sensor to addr. SET_ADDRESS is written twice (firmware 0x26 and
// later ignores a single write) and RESET makes the change effective. On failure the
// device keeps answering at its previous address.
func (s *Chirp) NewI2CAddress(ctx context.Context, addr byte) error {
	if err := validateAddress(addr); err != nil {
		s.status.SetError("invalid address")
		return err
	}
	current, err := s.ReadAddress(ctx)
	if err != nil {
		s.status.SetError("failed to read address")
		return fmt.Errorf("chirp: address change aborted: %w", err)
	}
	slog.Info("current address", "addr", fmt.Sprintf("%#04x", current))
	if current == addr {
		slog.Info("address already set", "addr", fmt.Sprintf("%#04x", addr))
		s.status.ClearError()
		return nil
	}
	for range 2 {
		err = s.writeRegister(ctx, RegSetAddress, addr)
		if err != nil {
			s.status.SetError("failed to write address")
			return fmt.Errorf("chirp: address change aborted: %w", err)
		}
	}
	err = s.Reset(ctx)
	if err != nil {
		s.status.SetError("failed to reset")
		return fmt.Errorf("chirp: address change aborted: %w", err)
	}
	slog.Info("address changed", "from", fmt.Sprintf("%#04x", s.addr), "to", fmt.Sprintf("%#04x", addr))
	s.addr = addr
	s.status.ClearError()
	return nil
}
