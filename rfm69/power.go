// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// HardwareClass distinguishes modules by their power amplifier wiring.
type HardwareClass uint8

const (
	// Standard modules (rfm69w, rfm69cw) only have PA0 connected to the antenna.
	Standard HardwareClass = iota
	// HighPower modules (rfm69hw, rfm69hcw) use PA1 and PA2 on the PA_BOOST pin.
	HighPower
)

func (h HardwareClass) String() string {
	if h == HighPower {
		return "high-power"
	}
	return "standard"
}

// PowerSetting is the outcome of mapping a requested output power onto the hardware.
type PowerSetting struct {
	DBm     int  // output power after clamping
	Amps    byte // PA0_ON, PA1_ON, PA2_ON bits for RegPaLevel
	Level   byte // 5-bit OutputPower field of RegPaLevel
	OCP     byte // value for RegOcp
	Boosted bool // the boost test registers must be on while transmitting
}

// MapPower computes the amplifier configuration for the requested power in dBm. Out of
// range requests are clamped, never rejected. The boost flag only has an effect on
// HighPower hardware, where it disables over current protection and unlocks +18 to
// +20dBm.
func MapPower(dbm int, class HardwareClass, boost bool) PowerSetting {
	clamp := func(lo, hi int) {
		if dbm < lo {
			dbm = lo
		}
		if dbm > hi {
			dbm = hi
		}
	}

	if class != HighPower {
		clamp(-18, 13)
		return PowerSetting{DBm: dbm, Amps: PA0_ON, Level: byte(dbm + 18), OCP: OCP_ON}
	}

	ps := PowerSetting{OCP: OCP_ON}
	if boost {
		// OCP would limit the current drawn by the boosted PA.
		ps.OCP = OCP_OFF
		ps.Boosted = true
		clamp(-2, 20)
	} else {
		clamp(-2, 17)
	}
	ps.DBm = dbm
	if dbm <= 13 {
		ps.Amps = PA1_ON
		ps.Level = byte(dbm + 18)
	} else {
		ps.Amps = PA1_ON | PA2_ON
		ps.Level = byte(dbm + 11)
	}
	return ps
}
