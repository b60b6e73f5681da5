package i2c

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gobotio "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/soil"
)

var _ soil.I2CBus = &GobotBus{}

// Connector is the part of a gobot adaptor GobotBus needs.
type Connector interface {
	GetI2cConnection(address int, busNr int) (gobotio.Connection, error)
}

// GobotBus routes register access through a gobot platform adaptor. One connection is
// opened lazily per device address and kept until Close.
type GobotBus struct {
	mx        sync.Mutex
	connector Connector
	busNr     int
	conns     map[byte]gobotio.Connection
	finalize  func() error
}

func NewGobotBus(connector Connector, busNr int) *GobotBus {
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]gobotio.Connection),
	}
}

// NewNanoPiBus connects the I2C part of a NanoPi NEO adaptor.
func NewNanoPiBus(busNr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	bus := NewGobotBus(npi, busNr)
	bus.finalize = npi.I2cBusAdaptor.Finalize
	return bus, nil
}

func (b *GobotBus) connection(address byte) (gobotio.Connection, error) {
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %#04x on bus %d: %w", address, b.busNr, err)
	}
	slog.Debug("gobot connection opened", "addr", fmt.Sprintf("%#04x", address), "bus", b.busNr)
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("read from %#04x failed: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %#04x: expected %d bytes, got %d", address, len(buffer), n)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := c.Write(buffer)
	if err != nil {
		return fmt.Errorf("write to %#04x failed: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %#04x: expected %d bytes, got %d", address, len(buffer), n)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close closes all device connections and finalizes the adaptor when the bus owns it.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %#04x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil {
			errs = append(errs, fmt.Errorf("finalize adaptor: %w", err))
		}
	}
	return errors.Join(errs...)
}
