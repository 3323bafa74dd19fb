// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package rfm69 is a packet engine for HopeRF RFM69 radios (Semtech SX1231/SX1231H).
//
// The engine relies on the radio's automatic mode sequencer so that software only needs
// to move bytes in and out of the FIFO. The normal state is receiving: when a full
// packet lands in the FIFO the sequencer parks the radio in standby until the FIFO has
// been emptied, and then resumes receiving on its own. Transmitting works the same way
// in reverse: the radio sits in standby, enters the transmitter once the FIFO has data
// and drops back out when the packet has been sent.
//
// Poll must be called to move received packets from the FIFO into the receive buffer
// and to switch back to receiving after a transmission. It can be called from a main
// loop or whenever the DIO2 pin, which New maps to the AutoMode signal, changes. The
// received packets are then retrieved with Available and Read.
//
// A Radio is not safe for concurrent use. Poll and the Send functions both change the
// engine state and must not run concurrently; an application that calls Poll from an
// interrupt goroutine and sends from another one needs to serialize them itself.
//
// Known limitations, deliberately left as they are: CanSend does not perform any
// carrier sense, a full receive buffer silently drops the oldest packet, and if the end
// of a transmission is never observed by Poll the engine stays in the Sending state.
package rfm69

import (
	"fmt"
)

// State is the packet engine state.
type State uint8

const (
	Receiving State = iota // listening, or holding a received packet in the FIFO
	Sending                // a packet has been written to the FIFO for transmission
)

func (s State) String() string {
	switch s {
	case Receiving:
		return "receiving"
	case Sending:
		return "sending"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Radio is the packet engine for one RFM69 module.
type Radio struct {
	chip  *Chip
	frame frameFormat
	ring  *ring
	tx    []byte // scratch buffer to compose outgoing packets
	class HardwareClass
	dbm   int  // requested output power
	boost bool // requested boost
	power PowerSetting
	state State
	log   LogPrintf
}

// New validates the configuration, allocates the receive buffer and configures the
// radio for packet operation. The radio is left in the Receiving state but the receiver
// is not armed, call Receive to start listening.
//
// New does not reset the chip or check that it responds, use Chip().Version for that.
func New(t Transport, cfg Config) (*Radio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Radio{
		chip: NewChip(t),
		frame: frameFormat{
			variable:   cfg.VariableLength,
			addressing: cfg.Addressing,
			payloadLen: cfg.PayloadLength,
		},
		class: cfg.hardwareClass(),
		state: Receiving,
	}
	r.SetLogger(cfg.Logger)
	if cfg.Slots == 1 {
		r.log("a single receive slot cannot signal available packets, use 2 or more")
	}
	r.ring = newRing(cfg.Slots, r.frame.slotLen())
	r.tx = make([]byte, r.frame.slotLen())

	c := r.chip
	c.SetMode(MODE_SEQUENCER_ON | MODE_STANDBY)
	c.setRecommended()
	c.SetSyncConfig(true, false, byte(len(cfg.Sync)), 0)
	c.SetSyncValue(cfg.Sync)

	// Packet format.
	flags := byte(PACKET_DCFREE_WHITENING | PACKET_CRC_ON)
	if cfg.VariableLength {
		flags |= PACKET_LENGTH_VARIABLE
	}
	if cfg.Addressing {
		flags |= PACKET_ADDR_FILTER_NODE_BCAST
		c.SetNodeAddress(cfg.NodeAddress)
		c.SetBroadcastAddress(cfg.BroadcastAddress)
	}
	c.SetPacketConfig1(flags)
	// Don't restart Rx by itself: a received packet stays in the FIFO until Poll gets it.
	c.SetPacketConfig2(0, false, false, cfg.AES)
	if cfg.AES {
		c.SetAESKey(cfg.AESKey)
	}
	// Start transmitting as soon as the first byte is in the FIFO, the SPI bus is
	// assumed to be faster than the bit rate.
	c.SetFifoThreshold(THRESHOLD_NOT_EMPTY, 0)
	// The length byte is not counted in the payload length.
	c.SetPayloadLength(byte(r.frame.packetLen()))
	c.SetDioMapping1(DIO2_AUTOMODE)

	r.SetFrequency(cfg.Frequency)
	if err := r.SetRate(cfg.Rate); err != nil {
		return nil, err
	}
	r.SetPower(cfg.Power, cfg.Boost)

	r.log("ready: %s, %d slots of %d bytes, %dHz %dbps %ddBm", r.frame, cfg.Slots,
		r.frame.slotLen(), cfg.Frequency, cfg.Rate, r.power.DBm)
	return r, nil
}

// SetLogger sets a logging function, nil may be used to disable logging, which is the
// default.
func (r *Radio) SetLogger(l LogPrintf) {
	if l != nil {
		r.log = func(format string, v ...interface{}) {
			l("rfm69: "+format, v...)
		}
	} else {
		r.log = func(format string, v ...interface{}) {}
	}
}

// Chip gives access to the radio's registers.
func (r *Radio) Chip() *Chip { return r.chip }

// State returns the engine state.
func (r *Radio) State() State { return r.state }

// SetFrequency sets the carrier frequency in Hz. The value is not checked, the module
// only works in the band it was built for.
func (r *Radio) SetFrequency(hz uint32) {
	// Fstep = 32Mhz / 2^19
	frf := uint32((uint64(hz)<<19 + 16000000) / 32000000)
	r.log("SetFrequency %dHz (frf=%#x)", hz, frf)
	r.chip.SetFrf(frf)
}

// SetRate applies the modulation preset for the given bit rate from the Presets table.
func (r *Radio) SetRate(bps uint32) error {
	p, ok := Presets[bps]
	if !ok {
		return fmt.Errorf("rfm69: unsupported rate %dbps", bps)
	}
	r.log("SetRate %dbps", bps)
	r.chip.applyPreset(p)
	return nil
}

// SetHighPower declares that the module uses the PA_BOOST pin (rfm69hw, rfm69hcw) and
// reapplies the current output power accordingly. Standard modules are the default.
func (r *Radio) SetHighPower(on bool) {
	if on {
		r.class = HighPower
	} else {
		r.class = Standard
	}
	r.SetPower(r.dbm, r.boost)
}

// SetPower configures the output power in dBm. Requests beyond what the module can do
// are clamped. With boost on a HighPower module can reach +20dBm, in that case the
// boost registers are turned on for the duration of each transmission, including one
// that is in progress.
func (r *Radio) SetPower(dbm int, boost bool) {
	r.dbm, r.boost = dbm, boost
	ps := MapPower(dbm, r.class, boost)
	r.chip.SetOCP(ps.OCP)
	r.chip.SetPALevel(ps.Amps, ps.Level)
	switch {
	case r.power.Boosted && !ps.Boosted:
		r.chip.SetBoost(false)
	case !r.power.Boosted && ps.Boosted && r.state == Sending:
		r.chip.SetBoost(true)
	}
	r.power = ps
	r.log("SetPower %ddBm (%s, amps=%#x, level=%d, boost=%v)", ps.DBm, r.class, ps.Amps,
		ps.Level, ps.Boosted)
}

// Power returns the current power settings.
func (r *Radio) Power() PowerSetting { return r.power }

// Receive puts the radio into receive mode.
//
// The sequencer is set up such that the radio drops into standby when a packet is in
// the FIFO and goes back to receiving once the FIFO has been read.
func (r *Radio) Receive() {
	// PayloadReady is not asserted on DIO0 this way, but the intermediate mode shows
	// on the AutoMode flag.
	r.chip.SetAutoMode(AUTOMODE_ENTER_RISING_PAYLOADREADY, AUTOMODE_EXIT_FALLING_FIFONOTEMPTY,
		AUTOMODE_INTERMEDIATE_STANDBY)
	if r.power.Boosted {
		// The boost registers must never be on in Rx.
		r.chip.SetBoost(false)
	}
	r.chip.SetMode(MODE_SEQUENCER_ON | MODE_RECEIVE)
	r.state = Receiving
}

// sendPacket switches to standby, sets up the sequencer to transmit as soon as the
// FIFO has data and to return to standby when the packet is sent, then fills the FIFO.
// The end of the transmission shows up in Poll as the AutoMode flag clearing.
func (r *Radio) sendPacket(pkt []byte) {
	r.chip.SetMode(MODE_SEQUENCER_ON | MODE_STANDBY)
	r.chip.SetAutoMode(AUTOMODE_ENTER_RISING_FIFOLEVEL, AUTOMODE_EXIT_RISING_PACKETSENT,
		AUTOMODE_INTERMEDIATE_TRANSMITTER)
	if r.power.Boosted {
		r.chip.SetBoost(true)
	}
	r.state = Sending
	r.chip.t.WriteFifo(pkt)
}

// Send transmits a fixed length packet without address. The payload is padded or
// truncated to the configured payload length.
func (r *Radio) Send(payload []byte) {
	r.sendPacket(r.frame.encode(r.tx, 0, payload))
}

// SendAddressed transmits a fixed length packet to the given address.
func (r *Radio) SendAddressed(addr byte, payload []byte) {
	r.sendPacket(r.frame.encode(r.tx, addr, payload))
}

// SendVariable transmits a variable length packet without address. Empty payloads
// cannot be sent.
func (r *Radio) SendVariable(payload []byte) {
	r.sendPacket(r.frame.encode(r.tx, 0, payload))
}

// SendAddressedVariable transmits a variable length packet to the given address.
func (r *Radio) SendAddressedVariable(addr byte, payload []byte) {
	r.sendPacket(r.frame.encode(r.tx, addr, payload))
}

// CanSend returns whether the radio is receiving and thus free to transmit. Nothing
// stops a Send while the previous packet is still going out, callers must check.
//
// This does not look at RSSI, a packet may be coming in. And if the end of a
// transmission is missed the radio stays in the Sending state.
func (r *Radio) CanSend() bool { return r.state == Receiving }

// Poll checks the radio for a received packet and for the end of a transmission. It
// must be called periodically or from the interrupt handler of the AutoMode pin.
func (r *Radio) Poll() {
	flags1 := r.chip.IRQFlags1()

	switch r.state {
	case Receiving:
		if flags1&IRQ1_AUTOMODE != 0 {
			// In intermediate standby: a packet is waiting in the FIFO. Emptying the
			// FIFO makes the sequencer resume Rx.
			r.frame.drain(r.chip.t, r.ring.writeSlot())
			r.ring.push()
		}
	case Sending:
		if flags1&IRQ1_AUTOMODE == 0 {
			// Out of intermediate Tx: the packet is sent.
			r.Receive()
		}
	default:
		r.log("Poll in undefined state %s, flags1=%#x", r.state, flags1)
	}
}

// Available returns whether a received packet is waiting to be read. Overflows are not
// detected.
func (r *Radio) Available() bool { return r.ring.available() }

// Read copies the next received packet into buf and returns its length, or 0 if there
// is none. With variable length packets the length byte is stripped. With addressing
// the first byte is the address the packet was sent to, so buf needs room for
// PayloadLength+1 bytes.
func (r *Radio) Read(buf []byte) int { return r.ring.read(r.frame, buf) }

// EmitPreamble turns the transmitter on with the sequencer off, which sends preamble
// bytes continuously until the mode is changed again, e.g. by Receive. Useful to measure
// the carrier.
func (r *Radio) EmitPreamble() {
	r.chip.SetMode(MODE_SEQUENCER_OFF | MODE_TRANSMIT)
}
