// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import (
	"errors"
	"fmt"
)

// MaxPayload is the largest payload length that fits the FIFO together with the length
// and address bytes.
const MaxPayload = 64

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// Config holds everything needed to bring up a Radio. All of it is validated by New
// before any memory is allocated or any register is written, so there is no ordering
// to observe between the settings.
type Config struct {
	// Frame format.
	VariableLength bool   // true: length byte in front of each packet
	Addressing     bool   // true: address byte in each packet, hardware address filter on
	AES            bool   // true: encrypt payloads with AES-128 ECB
	AESKey         []byte // 16 bytes, only used if AES is set
	PayloadLength  int    // fixed payload length, or max payload length if variable, 0..64
	Slots          int    // number of packets the receive buffer holds, 2 or more

	// Addresses for the hardware filter, only used if Addressing is set.
	NodeAddress      byte
	BroadcastAddress byte

	// RF settings.
	Sync      []byte    // 1..8 sync bytes, default {1, 1, 1, 1}
	Frequency uint32    // carrier frequency in Hz
	Rate      uint32    // bit rate, must be a key of Presets, default 4800
	Power     int       // output power in dBm, clamped to what the hardware supports
	Boost     bool      // allow the sx1231h boost registers, HighPower only
	HighPower bool      // the module uses PA_BOOST (rfm69hw, rfm69hcw)
	Logger    LogPrintf // function to use for logging, nil for none
}

var defaultSync = []byte{1, 1, 1, 1}

// Validate checks the configuration and fills in defaults. New calls it, applications
// may call it up front to report configuration errors early.
func (c *Config) Validate() error {
	if c.Slots < 1 {
		return errors.New("rfm69: Slots must be at least 1")
	}
	if c.PayloadLength < 0 || c.PayloadLength > MaxPayload {
		return fmt.Errorf("rfm69: invalid payload length %d, must be 0..%d",
			c.PayloadLength, MaxPayload)
	}
	if c.Frequency == 0 {
		return errors.New("rfm69: Frequency is required")
	}
	if c.AES && len(c.AESKey) != 16 {
		return fmt.Errorf("rfm69: invalid AES key length %d, must be 16", len(c.AESKey))
	}
	if c.Sync == nil {
		c.Sync = defaultSync
	}
	if len(c.Sync) < 1 || len(c.Sync) > 8 {
		return fmt.Errorf("rfm69: invalid number of sync bytes: %d, must be 1..8",
			len(c.Sync))
	}
	if c.Rate == 0 {
		c.Rate = 4800
	}
	if _, ok := Presets[c.Rate]; !ok {
		return fmt.Errorf("rfm69: unsupported rate %dbps", c.Rate)
	}
	return nil
}

func (c *Config) hardwareClass() HardwareClass {
	if c.HighPower {
		return HighPower
	}
	return Standard
}
