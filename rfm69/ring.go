// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// ring is the receive buffer: a fixed number of fixed-size slots carved out of a single
// arena. The writer is Poll, the reader is Read.
//
// There is no occupancy count, the buffer is empty when both indexes are equal. As a
// result a push onto a full buffer silently overwrites the oldest unread packet, and a
// single-slot ring can never report data as available.
type ring struct {
	arena   []byte
	slotLen int
	n       int
	wr, rd  int
}

func newRing(slots, slotLen int) *ring {
	return &ring{
		arena:   make([]byte, slots*slotLen),
		slotLen: slotLen,
		n:       slots,
	}
}

func (r *ring) slot(i int) []byte {
	return r.arena[i*r.slotLen : (i+1)*r.slotLen]
}

// writeSlot returns the slot the next received packet goes into.
func (r *ring) writeSlot() []byte { return r.slot(r.wr) }

// push commits the write slot.
func (r *ring) push() { r.wr = (r.wr + 1) % r.n }

func (r *ring) available() bool { return r.rd != r.wr }

// read copies the next packet's payload into out using the frame format to locate it
// and returns the number of bytes copied, 0 if the buffer is empty.
func (r *ring) read(f frameFormat, out []byte) int {
	if r.rd == r.wr {
		return 0
	}
	s := r.slot(r.rd)
	start, n := f.decode(s)
	n = copy(out, s[start:start+n])
	r.rd = (r.rd + 1) % r.n
	return n
}
