// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package gateway connects an rfm69 packet engine to a message broker. A worker
// goroutine polls the radio when its AutoMode interrupt pin changes, forwards received
// packets to a Publisher and transmits packets that are handed to Send.
//
// All calls into the radio are made while holding the gateway's mutex, which provides
// the mutual exclusion the engine requires between Poll and the Send functions.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tve/plainrfm69/jeelabs"
	"github.com/tve/plainrfm69/pktlog"
	"github.com/tve/plainrfm69/varint"
	"periph.io/x/periph/conn/gpio"
)

// LogPrintf is a function used by the gateway to print logging info.
type LogPrintf func(format string, v ...interface{})

// Radio is the part of rfm69.Radio used by the gateway.
type Radio interface {
	Poll()
	Available() bool
	Read(buf []byte) int
	CanSend() bool
	Send(payload []byte)
	SendAddressed(addr byte, payload []byte)
	SendVariable(payload []byte)
	SendAddressedVariable(addr byte, payload []byte)
}

// Pin is the interrupt pin connected to the radio's DIO2, which carries the AutoMode
// signal. It is satisfied by periph's gpio.PinIn and by the embd shim in the root
// package. The pin must have been configured to report both edges.
type Pin interface {
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// Publisher receives the packets coming in from the radio.
type Publisher interface {
	Publish(p *RxPacket) error
}

// Recorder stores packets going through the gateway, see pktlog.Store.
type Recorder interface {
	Record(dir string, at time.Time, addr int, payload []byte) error
}

// RxPacket is a received packet.
type RxPacket struct {
	At      time.Time       `json:"at"`
	Addr    int             `json:"addr"`             // -1 without addressing
	JL      *jeelabs.Header `json:"jl,omitempty"`     // JeeLabs header, stripped from Payload
	Payload []byte          `json:"payload"`          // base64 in JSON
	Values  []int           `json:"values,omitempty"` // varint decoded payload
}

// TxPacket is a packet to transmit. If Payload is empty the Values are varint encoded.
// In JeeLabs mode JL is prepended to the payload, a nil JL sends a broadcast.
type TxPacket struct {
	Addr    byte            `json:"addr"`
	JL      *jeelabs.Header `json:"jl,omitempty"`
	Payload []byte          `json:"payload"`
	Values  []int           `json:"values,omitempty"`
}

// Config describes the radio's packet format and the gateway's behavior.
type Config struct {
	Addressing     bool
	VariableLength bool
	PayloadLength  int
	Varint         bool          // decode received payloads as varints
	JeeLabs        bool          // payloads carry a JeeLabs header, needs no Addressing
	Group          byte          // JeeLabs group
	Node           byte          // JeeLabs node ID of the gateway, 63 accepts all
	TxQueue        int           // transmit queue length, default 10
	PollInterval   time.Duration // polling without interrupt pin, default 20ms
	Logger         LogPrintf
}

// Stats counts events since the gateway started.
type Stats struct {
	Rx, Tx     int // packets received and sent
	Dropped    int // packets that could not be sent
	Interrupts int // interrupt pin events
	Missed     int // interrupts found by the timeout rather than an edge
	Acks       int // JeeLabs ACKs queued
}

// ErrQueueFull is returned by Send when the transmit queue is full.
var ErrQueueFull = errors.New("gateway: transmit queue full")

// Gateway moves packets between a radio and a publisher.
type Gateway struct {
	mu    sync.Mutex // serializes calls into the radio and protects stats
	radio Radio
	pin   Pin
	pub   Publisher
	rec   Recorder
	cfg   Config
	txq   chan *TxPacket
	buf   []byte
	stats Stats
	log   LogPrintf
}

// New creates a gateway. The pin may be nil, in which case the radio is polled at
// regular intervals. The radio must have been put into receive mode.
func New(radio Radio, pin Pin, pub Publisher, cfg Config) *Gateway {
	if cfg.TxQueue <= 0 {
		cfg.TxQueue = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	g := &Gateway{
		radio: radio,
		pin:   pin,
		pub:   pub,
		cfg:   cfg,
		txq:   make(chan *TxPacket, cfg.TxQueue),
		buf:   make([]byte, cfg.PayloadLength+1),
		log:   func(format string, v ...interface{}) {},
	}
	if cfg.Logger != nil {
		g.log = func(format string, v ...interface{}) {
			cfg.Logger("gateway: "+format, v...)
		}
	}
	return g
}

// SetRecorder sets a recorder that stores all packets, nil disables recording.
func (g *Gateway) SetRecorder(r Recorder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rec = r
}

// Stats returns a snapshot of the counters.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Send queues a packet for transmission.
func (g *Gateway) Send(p *TxPacket) error {
	select {
	case g.txq <- p:
		return nil
	default:
		g.mu.Lock()
		g.stats.Dropped++
		g.mu.Unlock()
		return ErrQueueFull
	}
}

// Run is the worker loop, it returns when the context is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	// Interrupt goroutine converting WaitForEdge to a channel so we can select between
	// Rx and Tx.
	intr := make(chan struct{}, 1)
	var tick <-chan time.Time
	if g.pin != nil {
		go g.watch(ctx, intr)
	} else {
		t := time.NewTicker(g.cfg.PollInterval)
		defer t.Stop()
		tick = t.C
	}
	g.log("running")

	// A packet that could not be sent yet because the radio is busy. While there is
	// one the transmit queue is not read.
	var pending *TxPacket
	for {
		txq := g.txq
		if pending != nil {
			txq = nil
		}
		select {
		case <-ctx.Done():
			g.log("exiting: %s", ctx.Err())
			return ctx.Err()
		case <-intr:
			g.poll()
		case <-tick:
			g.poll()
		case pending = <-txq:
		}
		if pending != nil && g.send(pending) {
			pending = nil
		}
	}
}

// watch loops over interrupts until the context is cancelled.
func (g *Gateway) watch(ctx context.Context, intr chan<- struct{}) {
	signal := func() {
		select {
		case intr <- struct{}{}:
		default:
		}
	}
	// Make sure we're not missing an initial edge due to a race condition.
	if g.pin.Read() == gpio.High {
		signal()
	}
	for ctx.Err() == nil {
		edge := g.pin.WaitForEdge(time.Second)
		g.mu.Lock()
		switch {
		case edge:
			g.stats.Interrupts++
		case g.pin.Read() == gpio.High:
			// Sometimes WaitForEdge times out yet the interrupt pin is active, this
			// means the driver or epoll failed us.
			g.stats.Missed++
			g.log("interrupt was missed")
		}
		g.mu.Unlock()
		// Poll on timeouts too: the end of a transmission is a falling edge.
		signal()
	}
}

// poll lets the radio move received packets into its buffer, then forwards them.
func (g *Gateway) poll() {
	var pkts []*RxPacket
	g.mu.Lock()
	g.radio.Poll()
	for g.radio.Available() {
		n := g.radio.Read(g.buf)
		pkts = append(pkts, g.decode(g.buf[:n]))
	}
	g.stats.Rx += len(pkts)
	rec := g.rec
	g.mu.Unlock()

	for _, p := range pkts {
		g.log("rx addr=%d len=%d", p.Addr, len(p.Payload))
		if rec != nil {
			if err := rec.Record(pktlog.Rx, p.At, p.Addr, p.Payload); err != nil {
				g.log("%s", err)
			}
		}
		if p.JL != nil {
			if !p.JL.For(g.cfg.Node) {
				g.log("rx for node %d ignored", p.JL.Dst)
				continue
			}
			if p.JL.Ack {
				g.ack(p.JL)
			}
		}
		if err := g.pub.Publish(p); err != nil {
			g.log("publish: %s", err)
		}
	}
}

// decode turns what the radio returned into a packet. With addressing the first byte
// is the address the packet was sent to.
func (g *Gateway) decode(buf []byte) *RxPacket {
	p := &RxPacket{At: time.Now(), Addr: -1}
	if g.cfg.Addressing && len(buf) > 0 {
		p.Addr = int(buf[0])
		buf = buf[1:]
	}
	if g.cfg.JeeLabs {
		h, pl, err := jeelabs.Decode(g.cfg.Group, buf)
		if err != nil {
			g.log("%s", err)
		} else {
			p.JL = &h
			buf = pl
		}
	}
	p.Payload = append([]byte{}, buf...)
	if g.cfg.Varint {
		vals, err := varint.Decode(p.Payload)
		if err != nil {
			g.log("payload is not varint encoded: %s", err)
		} else {
			p.Values = vals
		}
	}
	return p
}

// send transmits the packet if the radio is free and returns false if it has to wait.
// Packets that can never be sent are dropped.
func (g *Gateway) send(p *TxPacket) bool {
	payload := p.Payload
	if len(payload) == 0 && len(p.Values) > 0 {
		payload = varint.Encode(p.Values...)
	}
	if g.cfg.JeeLabs {
		h := jeelabs.Header{Src: g.cfg.Node}
		if p.JL != nil {
			h = *p.JL
		}
		payload = jeelabs.Encode(g.cfg.Group, h, payload)
	}

	g.mu.Lock()
	if !g.radio.CanSend() {
		g.mu.Unlock()
		return false
	}
	if g.cfg.VariableLength && len(payload) == 0 {
		g.stats.Dropped++
		g.mu.Unlock()
		g.log("cannot send empty variable length packet")
		return true
	}
	if len(payload) > g.cfg.PayloadLength {
		g.log("payload of %d bytes truncated to %d", len(payload), g.cfg.PayloadLength)
		payload = payload[:g.cfg.PayloadLength]
	}
	switch {
	case g.cfg.Addressing && g.cfg.VariableLength:
		g.radio.SendAddressedVariable(p.Addr, payload)
	case g.cfg.Addressing:
		g.radio.SendAddressed(p.Addr, payload)
	case g.cfg.VariableLength:
		g.radio.SendVariable(payload)
	default:
		g.radio.Send(payload)
	}
	g.stats.Tx++
	rec := g.rec
	g.mu.Unlock()

	addr := -1
	if g.cfg.Addressing {
		addr = int(p.Addr)
	}
	g.log("tx addr=%d len=%d", addr, len(payload))
	if rec != nil {
		if err := rec.Record(pktlog.Tx, time.Now(), addr, payload); err != nil {
			g.log("%s", err)
		}
	}
	return true
}

// ack queues the ACK requested by a received packet.
func (g *Gateway) ack(h *jeelabs.Header) {
	r := h.Reply(g.cfg.Node)
	if err := g.Send(&TxPacket{JL: &r}); err != nil {
		g.log("ack to %d: %s", r.Dst, err)
		return
	}
	g.mu.Lock()
	g.stats.Acks++
	g.mu.Unlock()
}
