// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command rfm69-check verifies that one radio, or two radios sharing a chip select
// through an spimux, respond on the SPI bus.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/tve/plainrfm69/rfm69"
	"github.com/tve/plainrfm69/spibus"
	"github.com/tve/plainrfm69/spimux"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

func panicIf(err error) {
	if err != nil {
		panic(err)
	}
}

// check reads the mode and version registers and reports what it found.
func check(name string, t rfm69.Transport) bool {
	c := rfm69.NewChip(t)
	log.Printf("Checking %s...", name)
	log.Printf("  op-mode is %#x", c.Mode())
	switch v := c.Version(); v {
	case 0x23:
		log.Printf("  found sx1231: OK!")
	case 0x24:
		log.Printf("  found sx1231h: OK!")
	default:
		log.Printf("  oops, got %#x instead of 0x23 or 0x24", v)
		return false
	}
	// The sync value registers are free to use as scratch.
	c.SetSyncValue([]byte{0x55, 0xaa})
	if got := t.ReadMulti(rfm69.REG_SYNCVALUE1, 2); got[1] != 0x55 || got[0] != 0xaa {
		log.Printf("  oops, register write/read mismatch: %#v", got)
		return false
	}
	return true
}

func main() {
	portName := flag.String("spi", "", "SPI port name")
	selName := flag.String("cspin", "", "chip select mux pin name, checks two radios")
	hz := flag.Int64("speed", 1000000, "SPI clock in Hz")
	flag.Parse()

	_, err := host.Init()
	panicIf(err)

	port, err := spireg.Open(*portName)
	panicIf(err)
	defer port.Close()
	conn, err := port.Connect(physic.Frequency(*hz)*physic.Hertz, spi.Mode0, 8)
	panicIf(err)

	ok := true
	if *selName == "" {
		b := spibus.New(conn)
		ok = check("rfm69", b)
		panicIf(b.Err())
	} else {
		selPin := gpioreg.ByName(*selName)
		if selPin == nil {
			panic("Cannot open pin " + *selName)
		}
		c0, c1 := spimux.New(conn, selPin)
		for i, c := range []*spimux.Conn{c0, c1} {
			b := spibus.New(c)
			if !check(c.String(), b) {
				ok = false
			}
			if err := b.Err(); err != nil {
				log.Printf("  radio %d: %s", i, err)
				ok = false
			}
		}
	}
	if !ok {
		os.Exit(1)
	}
}
