// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import "sync"

// fakeChip implements Transport with a register file and a FIFO. It mimics the bits of
// the sequencer the engine relies on: delivering a packet in Rx raises the AutoMode
// flag until the FIFO is emptied, writing the FIFO in Tx raises it until txDone.
type fakeChip struct {
	mu     sync.Mutex
	regs   [0x80]byte
	fifo   []byte
	sent   [][]byte // packets written to the FIFO
	writes []regWrite
}

type regWrite struct {
	addr, value byte
}

func newFakeChip() *fakeChip { return &fakeChip{} }

func (f *fakeChip) ReadReg(addr byte) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[addr&0x7f]
}

func (f *fakeChip) WriteReg(addr, value byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr&0x7f] = value
	f.writes = append(f.writes, regWrite{addr, value})
}

// ReadMulti and WriteMulti behave like the wire: the first register holds the MSB.
func (f *fakeChip) ReadMulti(addr byte, n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[n-1-i] = f.regs[int(addr)+i]
	}
	return b
}

func (f *fakeChip) WriteMulti(addr byte, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range data {
		f.regs[int(addr)+i] = data[len(data)-1-i]
		f.writes = append(f.writes, regWrite{addr + byte(i), data[len(data)-1-i]})
	}
}

func (f *fakeChip) WriteFifo(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pkt := make([]byte, len(data))
	copy(pkt, data)
	f.sent = append(f.sent, pkt)
	// Sequencer enters intermediate Tx.
	f.regs[REG_IRQFLAGS1] |= IRQ1_AUTOMODE
}

func (f *fakeChip) ReadFifo(buf []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := copy(buf, f.fifo)
	f.fifo = f.fifo[n:]
	f.checkEmpty()
}

func (f *fakeChip) ReadVariableFifo(buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fifo) == 0 {
		return 0
	}
	buf[0] = f.fifo[0]
	f.fifo = f.fifo[1:]
	l := int(buf[0])
	if l > len(buf)-1 {
		l = len(buf) - 1
	}
	n := copy(buf[1:1+l], f.fifo)
	f.fifo = f.fifo[n:]
	f.checkEmpty()
	return l
}

// checkEmpty drops out of the intermediate mode when the FIFO is empty, like the
// FifoNotEmpty falling exit condition does.
func (f *fakeChip) checkEmpty() {
	if len(f.fifo) == 0 {
		f.regs[REG_IRQFLAGS1] &^= IRQ1_AUTOMODE
	}
}

// deliver simulates reception of a packet: the raw bytes land in the FIFO and the
// sequencer enters intermediate standby.
func (f *fakeChip) deliver(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fifo = append([]byte{}, raw...)
	f.regs[REG_IRQFLAGS1] |= IRQ1_AUTOMODE
}

// txDone simulates the PacketSent exit condition.
func (f *fakeChip) txDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[REG_IRQFLAGS1] &^= IRQ1_AUTOMODE
}

func (f *fakeChip) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// clearWrites forgets the register write log.
func (f *fakeChip) clearWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// writesTo returns the values written to a register, in order.
func (f *fakeChip) writesTo(addr byte) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var v []byte
	for _, w := range f.writes {
		if w.addr == addr {
			v = append(v, w.value)
		}
	}
	return v
}

// indexOf returns the position of the first write of value to addr in the log, -1 if
// there is none.
func (f *fakeChip) indexOf(addr, value byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.writes {
		if w.addr == addr && w.value == value {
			return i
		}
	}
	return -1
}
