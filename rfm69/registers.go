// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// Register addresses, see the SX1231 datasheet p61-74.
const (
	REG_FIFO          = 0x00
	REG_OPMODE        = 0x01
	REG_DATAMODUL     = 0x02
	REG_BITRATEMSB    = 0x03
	REG_FDEVMSB       = 0x05
	REG_FRFMSB        = 0x07
	REG_OSC1          = 0x0A
	REG_AFCCTRL       = 0x0B
	REG_LISTEN1       = 0x0D
	REG_LISTEN2       = 0x0E
	REG_LISTEN3       = 0x0F
	REG_VERSION       = 0x10
	REG_PALEVEL       = 0x11
	REG_PARAMP        = 0x12
	REG_OCP           = 0x13
	REG_LNA           = 0x18
	REG_RXBW          = 0x19
	REG_AFCBW         = 0x1A
	REG_AFCFEI        = 0x1E
	REG_AFCMSB        = 0x1F
	REG_FEIMSB        = 0x21
	REG_RSSICONFIG    = 0x23
	REG_RSSIVALUE     = 0x24
	REG_DIOMAPPING1   = 0x25
	REG_DIOMAPPING2   = 0x26
	REG_IRQFLAGS1     = 0x27
	REG_IRQFLAGS2     = 0x28
	REG_RSSITHRES     = 0x29
	REG_RXTIMEOUT1    = 0x2A
	REG_RXTIMEOUT2    = 0x2B
	REG_PREAMBLEMSB   = 0x2C
	REG_SYNCCONFIG    = 0x2E
	REG_SYNCVALUE1    = 0x2F
	REG_PACKETCONFIG1 = 0x37
	REG_PAYLOADLENGTH = 0x38
	REG_NODEADDR      = 0x39
	REG_BCASTADDR     = 0x3A
	REG_AUTOMODES     = 0x3B
	REG_FIFOTHRESH    = 0x3C
	REG_PACKETCONFIG2 = 0x3D
	REG_AESKEY1       = 0x3E
	REG_TEMP1         = 0x4E
	REG_TEMP2         = 0x4F
	REG_TESTLNA       = 0x58
	REG_TESTPA1       = 0x5A
	REG_TESTPA2       = 0x5C
	REG_TESTDAGC      = 0x6F
	REG_TESTAFC       = 0x71
)

// RegOpMode.
const (
	MODE_SLEEP    = 0 << 2
	MODE_STANDBY  = 1 << 2
	MODE_FS       = 2 << 2
	MODE_TRANSMIT = 3 << 2
	MODE_RECEIVE  = 4 << 2

	MODE_SEQUENCER_OFF = 1 << 7
	MODE_SEQUENCER_ON  = 0
	MODE_LISTEN_ON     = 1 << 6
	MODE_LISTEN_ABORT  = 1 << 5
)

// RegListen1.
const (
	LISTEN_RESOL_IDLE_64US  = 1 << 6
	LISTEN_RESOL_IDLE_4_1MS = 2 << 6
	LISTEN_RESOL_IDLE_262MS = 3 << 6
	LISTEN_RESOL_RX_64US    = 1 << 4
	LISTEN_RESOL_RX_4_1MS   = 2 << 4
	LISTEN_RESOL_RX_262MS   = 3 << 4

	LISTEN_CRITERIA_RSSI      = 0 << 3
	LISTEN_CRITERIA_RSSI_SYNC = 1 << 3

	LISTEN_END_STAY_RX_LISTEN_STOP    = 0 << 1
	LISTEN_END_RX_UNTIL_LISTEN_STOP   = 1 << 1
	LISTEN_END_RX_UNTIL_LISTEN_RESUME = 2 << 1
)

// RegDataModul.
const (
	DATAMODUL_PACKET = 0 << 5
	DATAMODUL_FSK    = 0 << 3
	DATAMODUL_OOK    = 1 << 3

	SHAPING_NONE   = 0
	SHAPING_BT_1_0 = 1
	SHAPING_BT_0_5 = 2
	SHAPING_BT_0_3 = 3
)

// RegPaLevel, RegOcp and the boost test registers.
const (
	PA0_ON = 1 << 7
	PA1_ON = 1 << 6
	PA2_ON = 1 << 5

	OCP_ON  = 0x1A // enabled, 95mA
	OCP_OFF = 0x0F

	TESTPA1_NORMAL = 0x55
	TESTPA1_BOOST  = 0x5D
	TESTPA2_NORMAL = 0x70
	TESTPA2_BOOST  = 0x7C
)

// RegPacketConfig1 and RegPacketConfig2.
const (
	PACKET_LENGTH_FIXED           = 0
	PACKET_LENGTH_VARIABLE        = 1 << 7
	PACKET_DCFREE_NONE            = 0 << 5
	PACKET_DCFREE_MANCHESTER      = 1 << 5
	PACKET_DCFREE_WHITENING       = 2 << 5
	PACKET_CRC_ON                 = 1 << 4
	PACKET_CRC_FAIL_KEEP          = 1 << 3
	PACKET_ADDR_FILTER_NONE       = 0 << 1
	PACKET_ADDR_FILTER_NODE       = 1 << 1
	PACKET_ADDR_FILTER_NODE_BCAST = 2 << 1

	PACKET2_RESTART_RX     = 1 << 2
	PACKET2_AUTORX_RESTART = 1 << 1
	PACKET2_AES_ON         = 1 << 0
)

// RegFifoThresh.
const (
	THRESHOLD_FIFOLEVEL = 0
	THRESHOLD_NOT_EMPTY = 1 << 7
)

// RegAutoModes enter conditions, exit conditions and intermediate modes.
const (
	AUTOMODE_ENTER_OFF                  = 0 << 5
	AUTOMODE_ENTER_RISING_FIFONOTEMPTY  = 1 << 5
	AUTOMODE_ENTER_RISING_FIFOLEVEL     = 2 << 5
	AUTOMODE_ENTER_RISING_CRCOK         = 3 << 5
	AUTOMODE_ENTER_RISING_PAYLOADREADY  = 4 << 5
	AUTOMODE_ENTER_RISING_SYNCADDRESS   = 5 << 5
	AUTOMODE_ENTER_RISING_PACKETSENT    = 6 << 5
	AUTOMODE_ENTER_FALLING_FIFONOTEMPTY = 7 << 5

	AUTOMODE_EXIT_OFF                  = 0 << 2
	AUTOMODE_EXIT_FALLING_FIFONOTEMPTY = 1 << 2
	AUTOMODE_EXIT_RISING_FIFOLEVEL     = 2 << 2
	AUTOMODE_EXIT_RISING_CRCOK         = 3 << 2
	AUTOMODE_EXIT_RISING_PAYLOADREADY  = 4 << 2
	AUTOMODE_EXIT_RISING_SYNCADDRESS   = 5 << 2
	AUTOMODE_EXIT_RISING_PACKETSENT    = 6 << 2
	AUTOMODE_EXIT_RISING_TIMEOUT       = 7 << 2

	AUTOMODE_INTERMEDIATE_SLEEP       = 0
	AUTOMODE_INTERMEDIATE_STANDBY     = 1
	AUTOMODE_INTERMEDIATE_RECEIVER    = 2
	AUTOMODE_INTERMEDIATE_TRANSMITTER = 3
)

// RegIrqFlags1 and RegIrqFlags2.
const (
	IRQ1_MODEREADY = 1 << 7
	IRQ1_RXREADY   = 1 << 6
	IRQ1_TXREADY   = 1 << 5
	IRQ1_PLLLOCK   = 1 << 4
	IRQ1_RSSI      = 1 << 3
	IRQ1_TIMEOUT   = 1 << 2
	IRQ1_AUTOMODE  = 1 << 1
	IRQ1_SYNCMATCH = 1 << 0

	IRQ2_FIFOFULL     = 1 << 7
	IRQ2_FIFONOTEMPTY = 1 << 6
	IRQ2_FIFOLEVEL    = 1 << 5
	IRQ2_FIFOOVERRUN  = 1 << 4
	IRQ2_PACKETSENT   = 1 << 3
	IRQ2_PAYLOADREADY = 1 << 2
	IRQ2_CRCOK        = 1 << 1
)

// RegDioMapping1, packet mode.
const (
	DIO0_RX_CRCOK        = 0 << 6
	DIO0_RX_PAYLOADREADY = 1 << 6
	DIO0_TX_PACKETSENT   = 0 << 6
	DIO1_FIFOLEVEL       = 0 << 4
	DIO2_FIFONOTEMPTY    = 0 << 2
	DIO2_AUTOMODE        = 3 << 2
	DIO3_FIFOFULL        = 0
)

// Misc register values.
const (
	LNA_ZIN_200               = 1 << 7
	LNA_GAIN_AGC              = 0
	DAGC_NORMAL               = 0x00
	DAGC_IMPROVED_LOWBETA_ON  = 0x20
	DAGC_IMPROVED_LOWBETA_OFF = 0x30
	AFCCTRL_STANDARD          = 0
	AFCCTRL_IMPROVED          = 1 << 5
	TESTLNA_NORMAL            = 0x1B
	TESTLNA_HIGH_SENSITIVITY  = 0x2D

	FifoSize = 66 // bytes in the chip's FIFO
)
