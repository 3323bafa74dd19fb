// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package spibus implements the rfm69 Transport on top of an SPI connection.
//
// The radio's SPI protocol is simple: the first byte of a transaction is the register
// address with the MSB set for a write, subsequent bytes are read or written to
// consecutive registers. The FIFO register does not auto-increment, so a burst on
// address 0 moves the whole packet.
package spibus

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
)

// Conn is a full-duplex SPI connection with its own chip select. It is satisfied by
// periph's spi.Conn, spimux.Conn, the embd shim in the root package and the TinyGo
// wrapper in cmd/rfm69-node.
type Conn interface {
	Tx(w, r []byte) error
}

const (
	regFifo  = 0x00
	writeBit = 0x80
)

// Bus is an rfm69.Transport over a Conn. Transactions are serialized with a mutex so a
// Bus may be shared by goroutines, the rfm69 engine itself is not safe for that though.
//
// The first error returned by the Conn is kept and can be retrieved with Err, after
// that reads return zeros.
type Bus struct {
	sync.Mutex
	conn   Conn
	closer io.Closer
	err    error
}

// New returns a Bus using the provided connection.
func New(c Conn) *Bus {
	return &Bus{conn: c}
}

// Open opens the named SPI port (e.g. "SPI0.0" or "" for the first one) using periph
// and connects to it in mode 0 with 8 bits per word at the given speed. periph's host
// drivers must have been initialized with host.Init.
func Open(name string, hz int64) (*Bus, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spibus: cannot open %q: %s", name, err)
	}
	c, err := p.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("spibus: cannot connect to %q: %s", name, err)
	}
	return &Bus{conn: c, closer: p}, nil
}

// Err returns the first error encountered on the bus, if any.
func (b *Bus) Err() error {
	b.Lock()
	defer b.Unlock()
	return b.err
}

// Close releases the SPI port if Open allocated it.
func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// tx performs one transaction, the caller must hold the lock.
func (b *Bus) tx(w, r []byte) {
	if b.err != nil {
		for i := range r {
			r[i] = 0
		}
		return
	}
	if err := b.conn.Tx(w, r); err != nil {
		b.err = fmt.Errorf("spibus: %s", err)
	}
}

// ReadReg reads a single register.
func (b *Bus) ReadReg(addr byte) byte {
	b.Lock()
	defer b.Unlock()
	var buf [2]byte
	b.tx([]byte{addr &^ writeBit, 0}, buf[:])
	return buf[1]
}

// WriteReg writes a single register.
func (b *Bus) WriteReg(addr, value byte) {
	b.Lock()
	defer b.Unlock()
	var buf [2]byte
	b.tx([]byte{addr | writeBit, value}, buf[:])
}

// ReadMulti reads n consecutive registers and returns their values LSB first, i.e.,
// the last register read ends up in the first byte.
func (b *Bus) ReadMulti(addr byte, n int) []byte {
	b.Lock()
	defer b.Unlock()
	w := make([]byte, n+1)
	r := make([]byte, n+1)
	w[0] = addr &^ writeBit
	b.tx(w, r)
	res := make([]byte, n)
	for i := 0; i < n; i++ {
		res[i] = r[n-i]
	}
	return res
}

// WriteMulti writes LSB-first data to consecutive registers, the last byte of data goes
// into the first register.
func (b *Bus) WriteMulti(addr byte, data []byte) {
	b.Lock()
	defer b.Unlock()
	n := len(data)
	w := make([]byte, n+1)
	w[0] = addr | writeBit
	for i := 0; i < n; i++ {
		w[1+i] = data[n-1-i]
	}
	b.tx(w, make([]byte, n+1))
}

// WriteFifo writes data into the FIFO in a single burst.
func (b *Bus) WriteFifo(data []byte) {
	b.Lock()
	defer b.Unlock()
	w := make([]byte, len(data)+1)
	w[0] = regFifo | writeBit
	copy(w[1:], data)
	b.tx(w, make([]byte, len(w)))
}

// ReadFifo fills buf from the FIFO in a single burst.
func (b *Bus) ReadFifo(buf []byte) {
	b.Lock()
	defer b.Unlock()
	b.readFifo(buf)
}

func (b *Bus) readFifo(buf []byte) {
	if len(buf) == 0 {
		return
	}
	w := make([]byte, len(buf)+1)
	r := make([]byte, len(buf)+1)
	w[0] = regFifo
	b.tx(w, r)
	copy(buf, r[1:])
}

// ReadVariableFifo reads the length byte of a variable length packet into buf[0] and
// then the packet itself into buf[1:]. The length is clamped to len(buf)-1, the value
// left in buf[0] is the one read from the radio.
func (b *Bus) ReadVariableFifo(buf []byte) int {
	b.Lock()
	defer b.Unlock()
	b.readFifo(buf[:1])
	l := int(buf[0])
	if l > len(buf)-1 {
		l = len(buf) - 1
	}
	b.readFifo(buf[1 : 1+l])
	return l
}
