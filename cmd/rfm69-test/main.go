// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command rfm69-test sends or receives a few packets using the rfm69 packet engine by
// polling it in a loop. Run with "tx" as argument to transmit.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/tve/plainrfm69/rfm69"
	"github.com/tve/plainrfm69/spibus"
	"periph.io/x/periph/host"
)

func panicIf(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	portName := flag.String("spi", "", "SPI port name")
	freq := flag.Uint("freq", 915750000, "center frequency in Hz")
	rate := flag.Uint("rate", 4800, "bit rate in bps")
	count := flag.Int("n", 10, "number of packets to send")
	hp := flag.Bool("hw", false, "module is a high power rfm69hw/hcw")
	preamble := flag.Bool("preamble", false, "emit a preamble for a few seconds and exit")
	flag.Parse()

	_, err := host.Init()
	panicIf(err)
	bus, err := spibus.Open(*portName, 4000000)
	panicIf(err)
	defer bus.Close()

	log.Printf("Initializing RFM69...")
	t0 := time.Now()
	radio, err := rfm69.New(bus, rfm69.Config{
		VariableLength: true,
		PayloadLength:  rfm69.MaxPayload,
		Slots:          4,
		Sync:           []byte{0x2D, 0x06},
		Frequency:      uint32(*freq),
		Rate:           uint32(*rate),
		Power:          13,
		HighPower:      *hp,
		Logger:         log.Printf,
	})
	panicIf(err)
	log.Printf("Ready (%.1fms), version %#x", time.Since(t0).Seconds()*1000,
		radio.Chip().Version())

	if *preamble {
		radio.EmitPreamble()
		time.Sleep(5 * time.Second)
		radio.Receive()
		panicIf(bus.Err())
		return
	}

	radio.Receive()
	buf := make([]byte, rfm69.MaxPayload+1)

	if flag.Arg(0) == "tx" {
		for i := 1; i <= *count; i++ {
			// Vary the power to see the difference in RSSI on the receiving end.
			if i&1 == 0 {
				radio.SetPower(0, false)
			} else {
				radio.SetPower(13, false)
			}
			msg := fmt.Sprintf("Hello %03d", i)
			log.Printf("Sending packet %d ...", i)
			t0 = time.Now()
			radio.SendVariable([]byte(msg))
			for !radio.CanSend() {
				if time.Since(t0) > time.Second {
					log.Printf("Transmission did not complete")
					break
				}
				time.Sleep(time.Millisecond)
				radio.Poll()
			}
			log.Printf("Sent in %.1fms", time.Since(t0).Seconds()*1000)
			time.Sleep(100 * time.Millisecond)
			panicIf(bus.Err())
		}
		log.Printf("Bye...")
		return
	}

	log.Printf("Receiving packets ...")
	for {
		radio.Poll()
		for radio.Available() {
			n := radio.Read(buf)
			log.Printf("Got len=%d rssi=%ddBm %q", n, radio.Chip().Rssi(), buf[:n])
		}
		panicIf(bus.Err())
		time.Sleep(5 * time.Millisecond)
	}
}
