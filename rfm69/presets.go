// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// Preset describes the modulation settings for one bit rate.
//
// The FSK constraints to keep in mind when adding presets: Fdev + BR/2 <= 500kHz, the
// modulation index 2*Fdev/BR should be between 0.5 and 10, and BR < 2*RxBw.
type Preset struct {
	BitRate  uint16 // RegBitrate, 32Mhz / bps
	Fdev     uint16 // RegFdev, in units of 61.03515625Hz
	RxBwMant byte   // 0:16, 1:20, 2:24
	RxBwExp  byte   // RxBw = 32Mhz / ((4*mant+16) * 2^(exp+2))
	Shaping  byte   // SHAPING_ constant
	LowBeta  byte   // low-beta AFC offset in units of 488Hz, 0 for standard AFC
}

// Presets is the table of supported bit rates, keyed by bits per second. It can be
// extended by the client before calling New or SetRate.
var Presets = map[uint32]Preset{
	4800:   {0x1a0b, 0x52, 0, 5, SHAPING_NONE, 0},         // Fdev 5kHz, RxBw 15.6kHz
	9600:   {0x1a0b / 2, 0x52 * 2, 0, 5, SHAPING_NONE, 0}, // Fdev 10kHz, RxBw 15.6kHz
	153600: {0x1a0b / 32, 0x52 * 32, 0, 0, SHAPING_BT_0_5, 0},
	300000: {0x006b, 0x52 * 64, 0, 0, SHAPING_BT_1_0, 45}, // beta ~1: improved AFC
}

// dccFreq is the recommended DC canceller cutoff, ~4% of RxBw.
const dccFreq = 0x2

// applyPreset writes the modulation registers for a preset.
func (c *Chip) applyPreset(p Preset) {
	c.SetBitRate(p.BitRate)
	c.SetFdev(p.Fdev)
	c.SetRxBw(dccFreq, p.RxBwMant, p.RxBwExp)
	c.SetDataModul(DATAMODUL_PACKET, false, p.Shaping)
	if p.LowBeta != 0 {
		// The offset must exceed the DC canceller's cutoff frequency.
		c.SetAfcCtrl(true)
		c.SetContinuousDagc(DAGC_IMPROVED_LOWBETA_ON)
		c.SetLowBetaAfcOffset(p.LowBeta)
	} else {
		c.SetAfcCtrl(false)
		c.SetContinuousDagc(DAGC_IMPROVED_LOWBETA_OFF)
		c.SetLowBetaAfcOffset(0)
	}
}

// setRecommended writes the register values recommended by the datasheet that none of
// the other settings touch.
func (c *Chip) setRecommended() {
	c.SetLNA(LNA_ZIN_200, LNA_GAIN_AGC) // p67
	c.SetPreambleSize(3)                // p71
	c.SetRSSIThreshold(0xe4)            // p70, -114dBm
	c.SetContinuousDagc(DAGC_IMPROVED_LOWBETA_OFF)
	c.SetAfcBw(0x4, 0x1, 0x3)
}
