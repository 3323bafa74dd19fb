// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import "fmt"

// frameFormat describes how packets are laid out in the FIFO. It is fixed when the
// Radio is created.
//
// Packet layouts on the wire (P: payload, A: address, L: length):
//
//	fixed,    no address: P
//	fixed,    address:    A P
//	variable, no address: L P       L = len(P)
//	variable, address:    L A P     L = len(P)+1
//
// Fixed length packets always carry payloadLen bytes of payload. The receive side keeps
// the raw FIFO bytes and only strips the length byte, so with addressing the address
// is returned as the first payload byte. That asymmetry is part of the API.
type frameFormat struct {
	variable   bool
	addressing bool
	payloadLen int // payload bytes as configured by the application, 0..64
}

func (f frameFormat) String() string {
	l := "fixed"
	if f.variable {
		l = "variable"
	}
	if f.addressing {
		return fmt.Sprintf("%s length %d+address", l, f.payloadLen)
	}
	return fmt.Sprintf("%s length %d", l, f.payloadLen)
}

// packetLen is the packet length as programmed into RegPayloadLength: the payload plus
// the address byte, but never the length byte.
func (f frameFormat) packetLen() int {
	n := f.payloadLen
	if f.addressing {
		n++
	}
	return n
}

// slotLen is the number of bytes a received packet occupies in the ring buffer.
func (f frameFormat) slotLen() int {
	n := f.packetLen()
	if f.variable {
		n++
	}
	return n
}

// encode lays out a packet into dst, which must hold at least slotLen bytes, and
// returns the slice to write into the FIFO. Oversize payloads are truncated and short
// fixed length payloads are zero padded.
func (f frameFormat) encode(dst []byte, addr byte, payload []byte) []byte {
	if len(payload) > f.payloadLen {
		payload = payload[:f.payloadLen]
	}
	i := 0
	if f.variable {
		l := len(payload)
		if f.addressing {
			l++
		}
		dst[i] = byte(l)
		i++
	}
	if f.addressing {
		dst[i] = addr
		i++
	}
	if f.variable {
		i += copy(dst[i:], payload)
		return dst[:i]
	}
	n := copy(dst[i:i+f.payloadLen], payload)
	for j := i + n; j < i+f.payloadLen; j++ {
		dst[j] = 0
	}
	return dst[:i+f.payloadLen]
}

// decode locates the payload in a ring slot and returns its offset and length. In
// variable mode the length byte is clamped to packetLen in case it is corrupt.
func (f frameFormat) decode(slot []byte) (start, n int) {
	if !f.variable {
		return 0, f.packetLen()
	}
	n = int(slot[0])
	if m := f.packetLen(); n > m {
		n = m
	}
	return 1, n
}

// drain reads one packet from the FIFO into slot.
func (f frameFormat) drain(t Transport, slot []byte) {
	if f.variable {
		t.ReadVariableFifo(slot[:f.slotLen()])
	} else {
		t.ReadFifo(slot[:f.packetLen()])
	}
}
