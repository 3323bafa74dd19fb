// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package spibus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tve/plainrfm69/rfm69"
)

var _ rfm69.Transport = (*Bus)(nil)

// fakeRadio behaves like the radio's SPI slave: a register file where address 0 is the
// FIFO and does not auto-increment.
type fakeRadio struct {
	regs [0x80]byte
	fifo []byte
	txs  [][]byte // write side of every transaction
	fail error
}

func (f *fakeRadio) Tx(w, r []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.txs = append(f.txs, append([]byte{}, w...))
	addr := w[0] & 0x7f
	write := w[0]&0x80 != 0
	for i := 1; i < len(w); i++ {
		switch {
		case addr == 0 && write:
			f.fifo = append(f.fifo, w[i])
		case addr == 0:
			if len(f.fifo) > 0 {
				r[i] = f.fifo[0]
				f.fifo = f.fifo[1:]
			} else {
				r[i] = 0
			}
		case write:
			f.regs[addr] = w[i]
			addr++
		default:
			r[i] = f.regs[addr]
			addr++
		}
	}
	return nil
}

func TestRegisters(t *testing.T) {
	f := &fakeRadio{}
	b := New(f)

	b.WriteReg(0x10, 0x24)
	if f.regs[0x10] != 0x24 {
		t.Fatalf("WriteReg: got %#x", f.regs[0x10])
	}
	if !bytes.Equal(f.txs[0], []byte{0x90, 0x24}) {
		t.Errorf("WriteReg sent %#v", f.txs[0])
	}
	if v := b.ReadReg(0x10); v != 0x24 {
		t.Errorf("ReadReg: got %#x", v)
	}
	if !bytes.Equal(f.txs[1], []byte{0x10, 0}) {
		t.Errorf("ReadReg sent %#v", f.txs[1])
	}
}

func TestMultiIsReversed(t *testing.T) {
	f := &fakeRadio{}
	b := New(f)

	// 0x6c8000 LSB first.
	b.WriteMulti(0x07, []byte{0x00, 0x80, 0x6c})
	if got := f.regs[0x07:0x0a]; !bytes.Equal(got, []byte{0x6c, 0x80, 0x00}) {
		t.Fatalf("WriteMulti: registers are %#v", got)
	}
	if got := b.ReadMulti(0x07, 3); !bytes.Equal(got, []byte{0x00, 0x80, 0x6c}) {
		t.Errorf("ReadMulti: got %#v", got)
	}
}

func TestFifo(t *testing.T) {
	f := &fakeRadio{}
	b := New(f)

	b.WriteFifo([]byte{3, 1, 2, 3})
	if !bytes.Equal(f.fifo, []byte{3, 1, 2, 3}) {
		t.Fatalf("WriteFifo: fifo has %#v", f.fifo)
	}
	if !bytes.Equal(f.txs[0], []byte{0x80, 3, 1, 2, 3}) {
		t.Errorf("WriteFifo sent %#v", f.txs[0])
	}

	buf := make([]byte, 4)
	b.ReadFifo(buf)
	if !bytes.Equal(buf, []byte{3, 1, 2, 3}) {
		t.Errorf("ReadFifo: got %#v", buf)
	}
}

func TestReadVariableFifo(t *testing.T) {
	tests := map[string]struct {
		fifo   []byte
		bufLen int
		n      int
		exp    []byte
	}{
		"exact":   {[]byte{3, 1, 2, 3}, 4, 3, []byte{3, 1, 2, 3}},
		"short":   {[]byte{1, 9}, 4, 1, []byte{1, 9, 0, 0}},
		"clamped": {[]byte{200, 1, 2, 3, 4}, 4, 3, []byte{200, 1, 2, 3}},
		"empty":   {[]byte{0}, 4, 0, []byte{0, 0, 0, 0}},
	}
	for n, tc := range tests {
		f := &fakeRadio{fifo: tc.fifo}
		b := New(f)
		buf := make([]byte, tc.bufLen)
		if l := b.ReadVariableFifo(buf); l != tc.n {
			t.Errorf("%s: got length %d expected %d", n, l, tc.n)
		}
		if !bytes.Equal(buf, tc.exp) {
			t.Errorf("%s: got %#v expected %#v", n, buf, tc.exp)
		}
	}
}

func TestStickyError(t *testing.T) {
	f := &fakeRadio{}
	b := New(f)
	f.regs[0x10] = 0x24
	f.fail = errors.New("bus on fire")

	b.WriteReg(0x01, 0x04)
	if b.Err() == nil {
		t.Fatalf("expected an error")
	}
	f.fail = nil
	if v := b.ReadReg(0x10); v != 0 {
		t.Errorf("read after error: got %#x", v)
	}
	if len(f.txs) != 0 {
		t.Errorf("bus was used after an error: %d transactions", len(f.txs))
	}
}

// TestEngine runs the packet engine over the bus against the fake radio.
func TestEngine(t *testing.T) {
	f := &fakeRadio{}
	f.regs[rfm69.REG_VERSION] = 0x24
	b := New(f)
	r, err := rfm69.New(b, rfm69.Config{
		VariableLength: true,
		PayloadLength:  10,
		Slots:          4,
		Frequency:      915000000,
		Sync:           []byte{0x2d, 0x2a},
		Logger:         t.Logf,
	})
	if err != nil {
		t.Fatal(err)
	}
	if v := r.Chip().Version(); v != 0x24 {
		t.Fatalf("version: got %#x", v)
	}
	if f.regs[rfm69.REG_SYNCVALUE1] != 0x2d || f.regs[rfm69.REG_SYNCVALUE1+1] != 0x2a {
		t.Errorf("sync: got %#x %#x", f.regs[rfm69.REG_SYNCVALUE1], f.regs[rfm69.REG_SYNCVALUE1+1])
	}
	r.Receive()

	r.SendVariable([]byte("hi"))
	if !bytes.Equal(f.fifo, []byte{2, 'h', 'i'}) {
		t.Fatalf("fifo: got %#v", f.fifo)
	}
	f.fifo = nil

	// Sent: the AutoMode flag is clear so Poll goes back to Rx.
	r.Poll()
	if !r.CanSend() {
		t.Fatalf("expected to be receiving")
	}

	f.fifo = []byte{3, 'a', 'b', 'c'}
	f.regs[rfm69.REG_IRQFLAGS1] = rfm69.IRQ1_AUTOMODE
	r.Poll()
	buf := make([]byte, 10)
	if n := r.Read(buf); string(buf[:n]) != "abc" {
		t.Errorf("received %q", buf[:n])
	}
	if b.Err() != nil {
		t.Error(b.Err())
	}
}
