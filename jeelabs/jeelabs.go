// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package jeelabs encodes and decodes the header of the JeeLabs "native" rfm69 packet
// format. It sits on top of a fixed or variable length payload without addressing.
//
// The first sync byte is 0x2d, the second is the group ID (network number). The first
// payload byte contains the 6-bit destination node ID and two group parity bits at the
// top: bit 7 is the group's b7^b5^b3^b1 and bit 6 is b6^b4^b2^b0. The second payload
// byte contains the 6-bit source node ID and an ACK request bit in bit 7.
//
// A packet with destination 0 is a broadcast, node 62 is used by anonymous tx-only nodes
// and node 63 on the receiving end means promiscuous mode.
package jeelabs

import "fmt"

const (
	Broadcast   = 0  // destination of broadcast packets
	Anonymous   = 62 // source of tx-only nodes
	Promiscuous = 63 // local node ID that accepts all packets
	HeaderLen   = 2
)

// Header is the decoded two-byte packet header.
type Header struct {
	Dst byte `json:"dst"`
	Src byte `json:"src"`
	Ack bool `json:"ack"` // ACK requested
}

// Sync returns the sync bytes for a group.
func Sync(grp byte) []byte {
	return []byte{0x2d, grp}
}

func parity(grp byte) byte {
	p7 := ((grp >> 7) & 1) ^ ((grp >> 5) & 1) ^ ((grp >> 3) & 1) ^ ((grp >> 1) & 1)
	p6 := ((grp >> 6) & 1) ^ ((grp >> 4) & 1) ^ ((grp >> 2) & 1) ^ ((grp >> 0) & 1)
	return p7<<7 | p6<<6
}

// Encode prepends the header to the payload.
func Encode(grp byte, h Header, payload []byte) []byte {
	p := make([]byte, len(payload)+HeaderLen)
	p[0] = h.Dst&0x3f | parity(grp)
	p[1] = h.Src & 0x3f
	if h.Ack {
		p[1] |= 0x80
	}
	copy(p[HeaderLen:], payload)
	return p
}

// Decode splits a packet into header and payload, the payload aliases pkt.
func Decode(grp byte, pkt []byte) (Header, []byte, error) {
	if len(pkt) < HeaderLen {
		return Header{}, nil, fmt.Errorf("jeelabs: packet too short: %d bytes", len(pkt))
	}
	if p := parity(grp); pkt[0]&0xc0 != p {
		return Header{}, nil, fmt.Errorf("jeelabs: bad group parity: got %#x want %#x for group %d",
			pkt[0]&0xc0, p, grp)
	}
	h := Header{Dst: pkt[0] & 0x3f, Src: pkt[1] & 0x3f, Ack: pkt[1]&0x80 != 0}
	return h, pkt[HeaderLen:], nil
}

// For reports whether a packet with this header is addressed to node.
func (h Header) For(node byte) bool {
	return node == Promiscuous || h.Dst == Broadcast || h.Dst == node
}

// Reply returns the header of the ACK for a packet with this header, as sent by node.
// A promiscuous node acks on behalf of the destination, except for broadcasts.
func (h Header) Reply(node byte) Header {
	src := h.Dst
	if src == Broadcast || node != Promiscuous {
		src = node
	}
	return Header{Dst: h.Src, Src: src}
}
