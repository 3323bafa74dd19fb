// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// Transport is the register and FIFO access the packet engine needs from the bus that
// connects it to the radio. It has no error returns: a failing bus shows up as garbage
// register contents, and concrete transports are expected to keep a persistent error
// the application can check (see spibus.Bus.Err).
//
// Multi-byte registers are transferred MSB first on the wire but the engine hands them
// to the transport LSB first, i.e., the way a little-endian integer sits in memory. The
// transport reverses the byte order on both the read and the write path. FIFO transfers
// are never reversed.
type Transport interface {
	// ReadReg reads a single register.
	ReadReg(addr byte) byte
	// WriteReg writes a single register.
	WriteReg(addr, value byte)
	// ReadMulti reads n consecutive registers starting at addr and returns them
	// LSB first.
	ReadMulti(addr byte, n int) []byte
	// WriteMulti writes the LSB-first data to consecutive registers starting at addr.
	WriteMulti(addr byte, data []byte)
	// WriteFifo bursts data into the FIFO.
	WriteFifo(data []byte)
	// ReadFifo fills buf from the FIFO.
	ReadFifo(buf []byte)
	// ReadVariableFifo reads a length byte into buf[0], clamps it to len(buf)-1,
	// reads that many bytes into buf[1:] and returns the clamped length.
	ReadVariableFifo(buf []byte) int
}
