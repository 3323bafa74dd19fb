// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package spimux shares one SPI chip select between two radios.
//
// A demux on the CS line, driven by an extra gpio pin, directs the chip select to one
// of the two devices. Each Conn sets the select pin before performing its transaction.
// A sample circuit uses a 74LVC1G19 demux with the SPI CS connected to E, the select
// pin connected to A, and the CS inputs of the two devices attached to Y0 and Y1. A
// pull-down resistor on A keeps both CS inactive while the pin is not driven.
//
// The speed and SPI mode are shared between the two devices.
package spimux

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/periph/conn/gpio"
)

// Bus is the shared SPI connection.
type Bus interface {
	Tx(w, r []byte) error
}

type shared struct {
	sync.Mutex
	bus  Bus
	sel  gpio.PinOut
	open int // number of Conns not yet closed
}

// Conn is one of the two devices on the multiplexed bus. It satisfies spibus.Conn.
type Conn struct {
	*shared
	level  gpio.Level // select value for this device
	closed bool
}

// New returns two connections for the provided bus, the first one using Low for the
// select pin, and the second using High.
func New(bus Bus, sel gpio.PinOut) (*Conn, *Conn) {
	s := &shared{bus: bus, sel: sel, open: 2}
	return &Conn{shared: s, level: gpio.Low}, &Conn{shared: s, level: gpio.High}
}

func (c *Conn) String() string {
	return fmt.Sprintf("spimux(%s=%s)", c.sel, c.level)
}

// Tx sets the select pin for this device and performs the transaction.
func (c *Conn) Tx(w, r []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return fmt.Errorf("spimux: closed")
	}
	if err := c.sel.Out(c.level); err != nil {
		return fmt.Errorf("spimux: select %s: %s", c.sel, err)
	}
	return c.bus.Tx(w, r)
}

// Close closes the underlying bus, if it can be closed, once both Conns are closed.
func (c *Conn) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.open--
	if c.open > 0 {
		return nil
	}
	if cl, ok := c.bus.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
