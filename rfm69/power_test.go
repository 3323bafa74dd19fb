// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import "testing"

func TestMapPower(t *testing.T) {
	tests := map[string]struct {
		dbm   int
		class HardwareClass
		boost bool
		exp   PowerSetting
	}{
		"std min":      {-30, Standard, false, PowerSetting{-18, PA0_ON, 0, OCP_ON, false}},
		"std 0":        {0, Standard, false, PowerSetting{0, PA0_ON, 18, OCP_ON, false}},
		"std max":      {13, Standard, false, PowerSetting{13, PA0_ON, 31, OCP_ON, false}},
		"std over":     {17, Standard, false, PowerSetting{13, PA0_ON, 31, OCP_ON, false}},
		"std boost":    {20, Standard, true, PowerSetting{13, PA0_ON, 31, OCP_ON, false}},
		"hp min":       {-10, HighPower, false, PowerSetting{-2, PA1_ON, 16, OCP_ON, false}},
		"hp pa1":       {13, HighPower, false, PowerSetting{13, PA1_ON, 31, OCP_ON, false}},
		"hp pa1+2":     {14, HighPower, false, PowerSetting{14, PA1_ON | PA2_ON, 25, OCP_ON, false}},
		"hp max":       {20, HighPower, false, PowerSetting{17, PA1_ON | PA2_ON, 28, OCP_ON, false}},
		"hp boost":     {25, HighPower, true, PowerSetting{20, PA1_ON | PA2_ON, 31, OCP_OFF, true}},
		"hp boost low": {0, HighPower, true, PowerSetting{0, PA1_ON, 18, OCP_OFF, true}},
		"hp boost 18":  {18, HighPower, true, PowerSetting{18, PA1_ON | PA2_ON, 29, OCP_OFF, true}},
	}
	for n, tc := range tests {
		if got := MapPower(tc.dbm, tc.class, tc.boost); got != tc.exp {
			t.Errorf("%s: got %+v expected %+v", n, got, tc.exp)
		}
	}
}

func TestSetPowerRegisters(t *testing.T) {
	r, fc := newTestRadio(t, Config{PayloadLength: 1, HighPower: true})

	r.SetPower(15, false)
	if v := fc.ReadReg(REG_PALEVEL); v != PA1_ON|PA2_ON|26 {
		t.Fatalf("PA level: got %#x", v)
	}
	if v := fc.ReadReg(REG_OCP); v != OCP_ON {
		t.Fatalf("OCP: got %#x", v)
	}

	r.SetPower(20, true)
	if v := fc.ReadReg(REG_OCP); v != OCP_OFF {
		t.Fatalf("OCP with boost: got %#x", v)
	}

	// Turning the boost off while sending must not leave the boost registers on.
	r.Send([]byte{1})
	r.SetPower(10, false)
	if v := fc.ReadReg(REG_TESTPA1); v != TESTPA1_NORMAL {
		t.Fatalf("boost left on: %#x", v)
	}
}

func TestBoostWhileSending(t *testing.T) {
	r, fc := newTestRadio(t, Config{PayloadLength: 1, HighPower: true, Power: 10})
	r.Send([]byte{1})
	r.SetPower(20, true)
	if r.State() != Sending || !r.Power().Boosted {
		t.Fatalf("state=%s power=%+v", r.State(), r.Power())
	}
	if v := fc.ReadReg(REG_TESTPA1); v != TESTPA1_BOOST {
		t.Fatalf("TESTPA1: got %#x", v)
	}
	if v := fc.ReadReg(REG_TESTPA2); v != TESTPA2_BOOST {
		t.Fatalf("TESTPA2: got %#x", v)
	}

	// Not while receiving, the next send turns them on.
	r2, fc2 := newTestRadio(t, Config{PayloadLength: 1, HighPower: true, Power: 10})
	r2.SetPower(20, true)
	if v := fc2.ReadReg(REG_TESTPA1); v == TESTPA1_BOOST {
		t.Fatalf("boost on while receiving")
	}
}
