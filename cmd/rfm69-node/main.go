// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

//go:build rp2040

// Command rfm69-node is a sensor node style firmware for an RP2040 board with an RFM69
// attached to SPI0. It sends a varint encoded beacon every few seconds and echoes every
// packet it receives. Build it with tinygo:
//
//	tinygo flash -target pico ./cmd/rfm69-node
package main

import (
	"log"
	"machine"
	"time"

	"github.com/tve/plainrfm69/rfm69"
	"github.com/tve/plainrfm69/spibus"
	"github.com/tve/plainrfm69/varint"
	"tinygo.org/x/drivers"
)

const (
	pinSCK  = machine.GPIO2
	pinSDO  = machine.GPIO3
	pinSDI  = machine.GPIO4
	pinCS   = machine.GPIO5
	pinDIO2 = machine.GPIO6

	beaconInterval = 5 * time.Second
	pollInterval   = 50 * time.Millisecond
)

// csConn drives the chip select around each transaction of a TinyGo SPI bus.
type csConn struct {
	spi drivers.SPI
	cs  machine.Pin
}

func (c *csConn) Tx(w, r []byte) error {
	c.cs.Low()
	err := c.spi.Tx(w, r)
	c.cs.High()
	return err
}

func main() {
	time.Sleep(time.Second) // give the serial console a chance to attach

	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 4000000,
		SCK:       pinSCK,
		SDO:       pinSDO,
		SDI:       pinSDI,
		Mode:      0,
	})
	if err != nil {
		log.Fatalf("SPI: %s", err)
	}
	pinCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCS.High()
	pinDIO2.Configure(machine.PinConfig{Mode: machine.PinInput})
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	bus := spibus.New(&csConn{spi: machine.SPI0, cs: pinCS})
	radio, err := rfm69.New(bus, rfm69.Config{
		VariableLength: true,
		PayloadLength:  32,
		Slots:          3,
		Sync:           []byte{0x2d, 0x06},
		Frequency:      868000000,
		Rate:           4800,
		Power:          10,
		Logger:         log.Printf,
	})
	if err != nil {
		log.Fatalf("%s", err)
	}
	if v := radio.Chip().Version(); v != 0x24 {
		log.Printf("unexpected radio version %#x", v)
	}
	radio.Receive()

	buf := make([]byte, 33)
	var echo []byte
	start := time.Now()
	lastPoll, lastBeacon := start, start
	seq := 0
	for {
		// DIO2 is high while a packet waits in the FIFO or is being sent.
		if pinDIO2.Get() || time.Since(lastPoll) > pollInterval {
			radio.Poll()
			lastPoll = time.Now()
		}
		for radio.Available() {
			n := radio.Read(buf)
			led.Set(!led.Get())
			echo = append(echo[:0], buf[:n]...)
		}
		switch {
		case !radio.CanSend():
		case len(echo) > 0:
			radio.SendVariable(echo)
			echo = echo[:0]
		case time.Since(lastBeacon) > beaconInterval:
			seq++
			radio.SendVariable(varint.Encode(seq, int(time.Since(start)/time.Second)))
			lastBeacon = time.Now()
		}
		if err := bus.Err(); err != nil {
			log.Fatalf("%s", err)
		}
		time.Sleep(time.Millisecond)
	}
}
