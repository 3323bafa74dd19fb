// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package devices

import (
	"errors"
	"fmt"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all" // board detection
	"periph.io/x/periph/conn/gpio"
)

// Init initializes embd's GPIO and SPI drivers, the board is detected automatically.
func Init() error {
	if err := embd.InitGPIO(); err != nil {
		return fmt.Errorf("embd: gpio: %s", err)
	}
	if err := embd.InitSPI(); err != nil {
		embd.CloseGPIO()
		return fmt.Errorf("embd: spi: %s", err)
	}
	return nil
}

// Close releases embd's drivers.
func Close() {
	embd.CloseSPI()
	embd.CloseGPIO()
}

//===== SPI shim for embd

// SPI is an embd SPI bus in mode 0 with 8 bits per word. It satisfies spibus.Conn and
// spimux.Bus.
type SPI struct {
	bus embd.SPIBus
}

// NewSPI opens the SPI channel (chip select) at the given speed.
func NewSPI(channel byte, hz int) (*SPI, error) {
	if hz <= 0 {
		return nil, errors.New("embd: invalid SPI speed")
	}
	return &SPI{embd.NewSPIBus(embd.SPIMode0, channel, hz, 8, 0)}, nil
}

// Tx performs a full-duplex transaction, w and r must have the same length.
func (s *SPI) Tx(w, r []byte) error {
	if len(w) != len(r) {
		return errors.New("embd: SPI Tx with different buffer lengths")
	}
	copy(r, w)
	return s.bus.TransferAndReceiveData(r)
}

// Close closes the bus.
func (s *SPI) Close() error { return s.bus.Close() }

//===== GPIO shim for embd

// GPIO is an embd digital pin. As an input it watches both edges and satisfies the
// gateway's Pin interface.
type GPIO struct {
	p    embd.DigitalPin
	dir  embd.Direction
	edge chan struct{}
}

// NewGPIO opens the named pin as an input watching both edges.
func NewGPIO(name string) (*GPIO, error) {
	p, err := embd.NewDigitalPin(name)
	if err != nil {
		return nil, fmt.Errorf("embd: pin %s: %s", name, err)
	}
	g := newGPIO(p)
	if err := p.SetDirection(embd.In); err != nil {
		return nil, fmt.Errorf("embd: pin %s: %s", name, err)
	}
	if err := p.Watch(embd.EdgeBoth, g.edgeCB); err != nil {
		return nil, fmt.Errorf("embd: pin %s: %s", name, err)
	}
	return g, nil
}

func newGPIO(p embd.DigitalPin) *GPIO {
	return &GPIO{p: p, dir: embd.In, edge: make(chan struct{}, 1)}
}

func (g *GPIO) String() string { return fmt.Sprintf("embd-gpio%d", g.p.N()) }

// Read returns the pin level.
func (g *GPIO) Read() gpio.Level {
	v, _ := g.p.Read()
	return v == embd.High
}

// WaitForEdge waits for an edge or the timeout. Edges are coalesced: several edges
// between two calls are reported once.
func (g *GPIO) WaitForEdge(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-g.edge:
		return true
	case <-t.C:
		return false
	}
}

// Out turns the pin into an output and sets its level.
func (g *GPIO) Out(l gpio.Level) error {
	if g.dir != embd.Out {
		g.p.StopWatching()
		if err := g.p.SetDirection(embd.Out); err != nil {
			return err
		}
		g.dir = embd.Out
	}
	v := embd.Low
	if l {
		v = embd.High
	}
	return g.p.Write(v)
}

// Close releases the pin.
func (g *GPIO) Close() error { return g.p.Close() }

func (g *GPIO) edgeCB(embd.DigitalPin) {
	select {
	case g.edge <- struct{}{}:
	default:
	}
}
