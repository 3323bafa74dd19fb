// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import (
	"bytes"
	"testing"
)

func TestChipMultiByte(t *testing.T) {
	fc := newFakeChip()
	c := NewChip(fc)

	c.SetFrf(0xe4c000) // 915MHz
	if got := fc.regs[REG_FRFMSB : REG_FRFMSB+3]; !bytes.Equal(got, []byte{0xe4, 0xc0, 0x00}) {
		t.Errorf("Frf registers: %#v", got)
	}
	if f := c.Frf(); f != 0xe4c000 {
		t.Errorf("Frf: got %#x", f)
	}

	c.SetBitRate(0x1a0b)
	if fc.regs[REG_BITRATEMSB] != 0x1a || fc.regs[REG_BITRATEMSB+1] != 0x0b {
		t.Errorf("BitRate registers: %#x %#x", fc.regs[REG_BITRATEMSB], fc.regs[REG_BITRATEMSB+1])
	}
	if b := c.BitRate(); b != 0x1a0b {
		t.Errorf("BitRate: got %#x", b)
	}

	c.SetPreambleSize(0x0103)
	if p := c.PreambleSize(); p != 0x0103 {
		t.Errorf("PreambleSize: got %#x", p)
	}
}

func TestChipFields(t *testing.T) {
	fc := newFakeChip()
	c := NewChip(fc)

	tests := []struct {
		name string
		set  func()
		reg  byte
		exp  byte
	}{
		{"sync config", func() { c.SetSyncConfig(true, false, 4, 1) }, REG_SYNCCONFIG, 0x99},
		{"sync fill", func() { c.SetSyncConfig(true, true, 1, 0) }, REG_SYNCCONFIG, 0xc0},
		{"packet2 aes", func() { c.SetPacketConfig2(0, false, false, true) }, REG_PACKETCONFIG2, 0x01},
		{"packet2 delay", func() { c.SetPacketConfig2(3, false, true, false) }, REG_PACKETCONFIG2, 0x32},
		{"automode", func() {
			c.SetAutoMode(AUTOMODE_ENTER_RISING_FIFOLEVEL, AUTOMODE_EXIT_RISING_PACKETSENT,
				AUTOMODE_INTERMEDIATE_TRANSMITTER)
		}, REG_AUTOMODES, AUTOMODE_ENTER_RISING_FIFOLEVEL | AUTOMODE_EXIT_RISING_PACKETSENT |
			AUTOMODE_INTERMEDIATE_TRANSMITTER},
		{"fifo thresh", func() { c.SetFifoThreshold(THRESHOLD_NOT_EMPTY, 0x0f) }, REG_FIFOTHRESH, 0x8f},
		{"pa level", func() { c.SetPALevel(PA0_ON, 0x3f) }, REG_PALEVEL, 0x9f},
		{"boost on", func() { c.SetBoost(true) }, REG_TESTPA2, TESTPA2_BOOST},
		{"boost off", func() { c.SetBoost(false) }, REG_TESTPA2, TESTPA2_NORMAL},
		{"listen", func() {
			c.SetListenConfig(LISTEN_RESOL_IDLE_4_1MS, LISTEN_RESOL_RX_64US,
				LISTEN_CRITERIA_RSSI_SYNC, LISTEN_END_RX_UNTIL_LISTEN_STOP)
		}, REG_LISTEN1, 0x9a},
		{"listen idle", func() { c.SetListenCoefIdle(0xf5) }, REG_LISTEN2, 0xf5},
		{"listen rx", func() { c.SetListenCoefRx(0x20) }, REG_LISTEN3, 0x20},
		{"temp start", func() { c.StartTempMeasure() }, REG_TEMP1, 0x08},
		{"sensitivity on", func() { c.SetSensitivityBoost(true) }, REG_TESTLNA, 0x2d},
		{"sensitivity off", func() { c.SetSensitivityBoost(false) }, REG_TESTLNA, 0x1b},
	}
	for _, tc := range tests {
		tc.set()
		if v := fc.regs[tc.reg]; v != tc.exp {
			t.Errorf("%s: got %#x expected %#x", tc.name, v, tc.exp)
		}
	}
}

func TestChipReadFields(t *testing.T) {
	fc := newFakeChip()
	c := NewChip(fc)

	fc.regs[REG_LNA] = 0x80 | 3<<3 | 1 // 200 ohm, current gain 3, set gain 1
	if g := c.LNA(); g != 3 {
		t.Errorf("LNA: got %d", g)
	}
	fc.regs[REG_TEMP1] = 1 << 2
	if c.TempDone() {
		t.Errorf("temperature measurement done while running")
	}
	fc.regs[REG_TEMP1] = 0
	fc.regs[REG_TEMP2] = 150
	if !c.TempDone() || c.Temp() != 150 {
		t.Errorf("temperature: done=%v value=%d", c.TempDone(), c.Temp())
	}
}

func TestChipSyncOrder(t *testing.T) {
	fc := newFakeChip()
	c := NewChip(fc)
	c.SetSyncValue([]byte{0x2d, 0xd4, 0x12})
	if got := fc.regs[REG_SYNCVALUE1 : REG_SYNCVALUE1+3]; !bytes.Equal(got, []byte{0x2d, 0xd4, 0x12}) {
		t.Errorf("sync registers: %#v", got)
	}
}

func TestRssi(t *testing.T) {
	fc := newFakeChip()
	c := NewChip(fc)
	fc.regs[REG_RSSIVALUE] = 180
	if r := c.Rssi(); r != -90 {
		t.Errorf("Rssi: got %d", r)
	}
}
