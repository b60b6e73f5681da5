package chirp

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/mklimuk/soil/snsctx"
)

// Register is a Chirp register (command) address.
type Register byte

const (
	RegCapacitance  Register = 0x00 // (r) 2 bytes
	RegSetAddress   Register = 0x01 // (w) 1 byte
	RegAddress      Register = 0x02 // (r) 1 byte
	RegMeasureLight Register = 0x03 // (w) trigger
	RegLight        Register = 0x04 // (r) 2 bytes
	RegTemperature  Register = 0x05 // (r) 2 bytes
	RegReset        Register = 0x06 // (w) trigger
	RegVersion      Register = 0x07 // (r) 1 byte
	RegSleep        Register = 0x08 // (w) trigger
	RegBusy         Register = 0x09 // (r) 1 byte
)

type registerInfo struct {
	name     string
	width    int
	readable bool
}

var registers = map[Register]registerInfo{
	RegCapacitance:  {"GET_CAPACITANCE", 2, true},
	RegSetAddress:   {"SET_ADDRESS", 1, false},
	RegAddress:      {"GET_ADDRESS", 1, true},
	RegMeasureLight: {"MEASURE_LIGHT", 0, false},
	RegLight:        {"GET_LIGHT", 2, true},
	RegTemperature:  {"GET_TEMPERATURE", 2, true},
	RegReset:        {"RESET", 0, false},
	RegVersion:      {"GET_VERSION", 1, true},
	RegSleep:        {"SLEEP", 0, false},
	RegBusy:         {"GET_BUSY", 1, true},
}

func (r Register) String() string {
	if info, ok := registers[r]; ok {
		return info.name
	}
	return fmt.Sprintf("REG(%#04x)", byte(r))
}

// Width is the payload size in bytes; zero for trigger-only registers.
func (r Register) Width() int {
	return registers[r].width
}

func (r Register) Readable() bool {
	return registers[r].readable
}

// readRegister selects reg and reads its full width from the device.
func (s *Chirp) readRegister(ctx context.Context, reg Register) ([]byte, error) {
	info, ok := registers[reg]
	if !ok || !info.readable {
		return nil, fmt.Errorf("chirp: register %s is not readable", reg)
	}
	err := s.transport.WriteToAddr(ctx, s.addr, []byte{byte(reg)})
	if err != nil {
		return nil, fmt.Errorf("chirp: could not select register %s: %w", reg, err)
	}
	buf := make([]byte, info.width)
	err = s.transport.ReadFromAddr(ctx, s.addr, buf)
	if err != nil {
		return nil, fmt.Errorf("chirp: could not read register %s: %w", reg, err)
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("register read", "addr", fmt.Sprintf("%#04x", s.addr), "register", reg.String(), "raw", hex.EncodeToString(buf))
	}
	return buf, nil
}

// writeRegister writes reg followed by payload. Trigger registers take no payload.
func (s *Chirp) writeRegister(ctx context.Context, reg Register, payload ...byte) error {
	info, ok := registers[reg]
	if !ok || info.readable {
		return fmt.Errorf("chirp: register %s is not writable", reg)
	}
	if len(payload) != info.width {
		return fmt.Errorf("chirp: register %s expects %d payload bytes, got %d", reg, info.width, len(payload))
	}
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, byte(reg))
	buf = append(buf, payload...)
	if snsctx.IsVerbose(ctx) {
		slog.Debug("register write", "addr", fmt.Sprintf("%#04x", s.addr), "register", reg.String(), "raw", hex.EncodeToString(buf))
	}
	err := s.transport.WriteToAddr(ctx, s.addr, buf)
	if err != nil {
		return fmt.Errorf("chirp: could not write register %s: %w", reg, err)
	}
	return nil
}

func (s *Chirp) readUint8(ctx context.Context, reg Register) (byte, error) {
	buf, err := s.readRegister(ctx, reg)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readUint16 decodes a big endian register value.
func (s *Chirp) readUint16(ctx context.Context, reg Register) (uint16, error) {
	buf, err := s.readRegister(ctx, reg)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}
