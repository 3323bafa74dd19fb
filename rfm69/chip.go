// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// Chip provides named access to the sx1231 registers on top of a Transport. It does
// nothing by itself, the packet engine in Radio decides what to write when.
//
// Multi-byte fields are passed around as plain integers, the transport takes care of
// putting them on the wire MSB first.
type Chip struct {
	t Transport
}

// NewChip returns a register accessor using the given transport.
func NewChip(t Transport) *Chip { return &Chip{t: t} }

// Transport returns the underlying transport.
func (c *Chip) Transport() Transport { return c.t }

func le(v uint32, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

func unle(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// SetMode writes RegOpMode, mode is a sum of a MODE_ operating mode and the sequencer
// and listen bits.
func (c *Chip) SetMode(mode byte) { c.t.WriteReg(REG_OPMODE, mode) }

// Mode reads RegOpMode.
func (c *Chip) Mode() byte { return c.t.ReadReg(REG_OPMODE) }

// SetDataModul selects packet/continuous processing, FSK or OOK and the modulation
// shaping.
func (c *Chip) SetDataModul(processing byte, ook bool, shaping byte) {
	v := processing&0x60 | shaping&0x03
	if ook {
		v |= DATAMODUL_OOK
	}
	c.t.WriteReg(REG_DATAMODUL, v)
}

// SetBitRate sets the bit rate divider, bit rate = 32Mhz / div.
func (c *Chip) SetBitRate(div uint16) { c.t.WriteMulti(REG_BITRATEMSB, le(uint32(div), 2)) }

// BitRate reads back the bit rate divider.
func (c *Chip) BitRate() uint16 { return uint16(unle(c.t.ReadMulti(REG_BITRATEMSB, 2))) }

// SetFdev sets the frequency deviation in units of Fstep (61.03515625Hz).
func (c *Chip) SetFdev(fdev uint16) { c.t.WriteMulti(REG_FDEVMSB, le(uint32(fdev), 2)) }

// SetFrf sets the 24-bit carrier frequency register in units of Fstep.
func (c *Chip) SetFrf(frf uint32) { c.t.WriteMulti(REG_FRFMSB, le(frf&0xffffff, 3)) }

// Frf reads back the carrier frequency register.
func (c *Chip) Frf() uint32 { return unle(c.t.ReadMulti(REG_FRFMSB, 3)) }

// StartRCCalibration triggers the RC oscillator calibration, standby mode only.
func (c *Chip) StartRCCalibration() { c.t.WriteReg(REG_OSC1, 1<<7) }

// RCCalibrationDone returns whether the RC calibration completed.
func (c *Chip) RCCalibrationDone() bool { return c.t.ReadReg(REG_OSC1)&(1<<6) != 0 }

// SetAfcCtrl selects the standard or the improved (low modulation index) AFC routine.
func (c *Chip) SetAfcCtrl(improved bool) {
	if improved {
		c.t.WriteReg(REG_AFCCTRL, AFCCTRL_IMPROVED)
	} else {
		c.t.WriteReg(REG_AFCCTRL, AFCCTRL_STANDARD)
	}
}

// Version reads the silicon version, 0x24 for an sx1231h.
func (c *Chip) Version() byte { return c.t.ReadReg(REG_VERSION) }

// SetListenConfig writes RegListen1, see the LISTEN_ constants.
func (c *Chip) SetListenConfig(resolIdle, resolRx, criteria, end byte) {
	c.t.WriteReg(REG_LISTEN1, resolIdle&0xc0|resolRx&0x30|criteria&0x08|end&0x06)
}

// SetListenCoefIdle sets the duration of the idle phase in Listen mode, in units of
// the idle resolution.
func (c *Chip) SetListenCoefIdle(coef byte) { c.t.WriteReg(REG_LISTEN2, coef) }

// SetListenCoefRx sets the duration of the Rx phase in Listen mode, in units of the
// Rx resolution.
func (c *Chip) SetListenCoefRx(coef byte) { c.t.WriteReg(REG_LISTEN3, coef) }

// SetPALevel selects the power amplifiers (PA0_ON etc.) and the 5-bit output power.
func (c *Chip) SetPALevel(amps, level byte) { c.t.WriteReg(REG_PALEVEL, amps|level&0x1f) }

// PALevel reads RegPaLevel.
func (c *Chip) PALevel() byte { return c.t.ReadReg(REG_PALEVEL) }

// SetPARamp sets the PA ramp time, 0..15 for 3.4ms down to 10us.
func (c *Chip) SetPARamp(ramp byte) { c.t.WriteReg(REG_PARAMP, ramp&0x0f) }

// SetOCP writes the over current protection register, OCP_ON or OCP_OFF.
func (c *Chip) SetOCP(v byte) { c.t.WriteReg(REG_OCP, v) }

// SetLNA sets the LNA input impedance and gain.
func (c *Chip) SetLNA(zin, gain byte) { c.t.WriteReg(REG_LNA, zin|gain&0x07) }

// LNA returns the current LNA gain, 1 is the highest.
func (c *Chip) LNA() byte { return c.t.ReadReg(REG_LNA)>>3&0x07 }

// SetRxBw sets the DC canceller cutoff and the channel filter bandwidth.
func (c *Chip) SetRxBw(dccFreq, mant, exp byte) {
	c.t.WriteReg(REG_RXBW, dccFreq<<5|(mant&0x3)<<3|exp&0x7)
}

// SetAfcBw sets the same parameters as SetRxBw, for use during AFC.
func (c *Chip) SetAfcBw(dccFreq, mant, exp byte) {
	c.t.WriteReg(REG_AFCBW, dccFreq<<5|(mant&0x3)<<3|exp&0x7)
}

// StartRssi starts an RSSI measurement.
func (c *Chip) StartRssi() { c.t.WriteReg(REG_RSSICONFIG, 1) }

// RssiDone returns whether the RSSI measurement completed.
func (c *Chip) RssiDone() bool { return c.t.ReadReg(REG_RSSICONFIG)&0x02 != 0 }

// Rssi returns the last RSSI measurement in dBm.
func (c *Chip) Rssi() int { return -int(c.t.ReadReg(REG_RSSIVALUE)) / 2 }

// SetDioMapping1 maps DIO0 through DIO3.
func (c *Chip) SetDioMapping1(m byte) { c.t.WriteReg(REG_DIOMAPPING1, m) }

// IRQFlags1 reads RegIrqFlags1: mode-ready, rx-ready, tx-ready, PLL-lock, RSSI,
// timeout, automode and sync-match.
func (c *Chip) IRQFlags1() byte { return c.t.ReadReg(REG_IRQFLAGS1) }

// IRQFlags2 reads RegIrqFlags2: FIFO-full, FIFO-not-empty, FIFO-level, FIFO-overrun,
// packet-sent, payload-ready and CRC-ok.
func (c *Chip) IRQFlags2() byte { return c.t.ReadReg(REG_IRQFLAGS2) }

// SetRSSIThreshold sets the RSSI trigger level, -v/2 dBm.
func (c *Chip) SetRSSIThreshold(v byte) { c.t.WriteReg(REG_RSSITHRES, v) }

// SetTimeoutRxStart sets the timeout after entering Rx if no RSSI interrupt occurs,
// in units of 16 bit periods, 0 disables.
func (c *Chip) SetTimeoutRxStart(v byte) { c.t.WriteReg(REG_RXTIMEOUT1, v) }

// SetTimeoutRssiThresh sets the timeout after the RSSI interrupt if PayloadReady
// doesn't occur, in units of 16 bit periods, 0 disables.
func (c *Chip) SetTimeoutRssiThresh(v byte) { c.t.WriteReg(REG_RXTIMEOUT2, v) }

// SetPreambleSize sets the number of preamble bytes to transmit.
func (c *Chip) SetPreambleSize(n uint16) { c.t.WriteMulti(REG_PREAMBLEMSB, le(uint32(n), 2)) }

// PreambleSize reads back the preamble size.
func (c *Chip) PreambleSize() uint16 { return uint16(unle(c.t.ReadMulti(REG_PREAMBLEMSB, 2))) }

// SetSyncConfig enables sync word detection with the given size (1..8) and number of
// tolerated bit errors.
func (c *Chip) SetSyncConfig(on, fifoFill bool, size, tol byte) {
	var v byte
	if on {
		v |= 1 << 7
	}
	if fifoFill {
		v |= 1 << 6
	}
	v |= ((size - 1) & 0x7) << 3
	v |= tol & 0x7
	c.t.WriteReg(REG_SYNCCONFIG, v)
}

// SetSyncValue writes the sync word, sync[0] is sent first.
func (c *Chip) SetSyncValue(sync []byte) {
	// The transport reverses multi-byte writes, undo that so sync[0] lands in
	// RegSyncValue1.
	rev := make([]byte, len(sync))
	for i := range sync {
		rev[len(sync)-1-i] = sync[i]
	}
	c.t.WriteMulti(REG_SYNCVALUE1, rev)
}

// SetPacketConfig1 writes RegPacketConfig1, see the PACKET_ constants.
func (c *Chip) SetPacketConfig1(flags byte) { c.t.WriteReg(REG_PACKETCONFIG1, flags) }

// SetPacketConfig2 writes RegPacketConfig2.
func (c *Chip) SetPacketConfig2(interPacketRxDelay byte, restartRx, autoRxRestart, aes bool) {
	v := (interPacketRxDelay & 0x0f) << 4
	if restartRx {
		v |= PACKET2_RESTART_RX
	}
	if autoRxRestart {
		v |= PACKET2_AUTORX_RESTART
	}
	if aes {
		v |= PACKET2_AES_ON
	}
	c.t.WriteReg(REG_PACKETCONFIG2, v)
}

// SetPayloadLength sets the fixed packet length or the max Rx length in variable mode.
func (c *Chip) SetPayloadLength(n byte) { c.t.WriteReg(REG_PAYLOADLENGTH, n) }

// SetNodeAddress sets the address used by the hardware address filter.
func (c *Chip) SetNodeAddress(a byte) { c.t.WriteReg(REG_NODEADDR, a) }

// SetBroadcastAddress sets the broadcast address used by the hardware address filter.
func (c *Chip) SetBroadcastAddress(a byte) { c.t.WriteReg(REG_BCASTADDR, a) }

// SetAutoMode programs the automatic mode sequencer, see the AUTOMODE_ constants.
func (c *Chip) SetAutoMode(enter, exit, intermediate byte) {
	c.t.WriteReg(REG_AUTOMODES, enter&0xe0|exit&0x1c|intermediate&0x03)
}

// SetFifoThreshold sets the Tx start condition and the FIFO level threshold.
func (c *Chip) SetFifoThreshold(cond, level byte) {
	c.t.WriteReg(REG_FIFOTHRESH, cond&0x80|level&0x7f)
}

// SetAESKey writes the 16-byte AES key, key[0] first.
func (c *Chip) SetAESKey(key []byte) {
	rev := make([]byte, len(key))
	for i := range key {
		rev[len(key)-1-i] = key[i]
	}
	c.t.WriteMulti(REG_AESKEY1, rev)
}

// StartTempMeasure triggers a temperature measurement, the receiver can't be used
// while it runs.
func (c *Chip) StartTempMeasure() { c.t.WriteReg(REG_TEMP1, 1<<3) }

// TempDone returns whether the temperature measurement completed.
func (c *Chip) TempDone() bool { return c.t.ReadReg(REG_TEMP1)&(1<<2) == 0 }

// Temp returns the raw temperature, it decreases by one per degree C and needs
// calibration.
func (c *Chip) Temp() byte { return c.t.ReadReg(REG_TEMP2) }

// SetSensitivityBoost selects the high sensitivity LNA mode.
func (c *Chip) SetSensitivityBoost(on bool) {
	if on {
		c.t.WriteReg(REG_TESTLNA, TESTLNA_HIGH_SENSITIVITY)
	} else {
		c.t.WriteReg(REG_TESTLNA, TESTLNA_NORMAL)
	}
}

// SetContinuousDagc writes RegTestDagc.
func (c *Chip) SetContinuousDagc(v byte) { c.t.WriteReg(REG_TESTDAGC, v) }

// SetLowBetaAfcOffset sets the AFC offset for low modulation index systems, in units
// of 488Hz.
func (c *Chip) SetLowBetaAfcOffset(v byte) { c.t.WriteReg(REG_TESTAFC, v) }

// SetBoost turns the sx1231h high power test registers on or off. They must only be
// on while transmitting.
func (c *Chip) SetBoost(on bool) {
	if on {
		c.t.WriteReg(REG_TESTPA1, TESTPA1_BOOST)
		c.t.WriteReg(REG_TESTPA2, TESTPA2_BOOST)
	} else {
		c.t.WriteReg(REG_TESTPA1, TESTPA1_NORMAL)
		c.t.WriteReg(REG_TESTPA2, TESTPA2_NORMAL)
	}
}
