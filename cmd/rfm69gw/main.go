// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command rfm69gw is a gateway between an RFM69 radio and an MQTT broker. Received
// packets are published as JSON to <prefix>/rx, JSON packets published to <prefix>/tx
// are transmitted, and counters are published to <prefix>/status every minute.
//
// The radio may be attached using periph or embd, with or without an spimux to share
// the chip select with a second device. See Config for the YAML configuration file;
// the most common settings can also be given as flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	devices "github.com/tve/plainrfm69"
	"github.com/tve/plainrfm69/gateway"
	"github.com/tve/plainrfm69/pktlog"
	"github.com/tve/plainrfm69/rfm69"
	"github.com/tve/plainrfm69/spibus"
	"github.com/tve/plainrfm69/spimux"
	"github.com/tve/plainrfm69/thread"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// LogPrintf is the signature of the debug logger passed to the radio and gateway.
type LogPrintf func(format string, v ...interface{})

// radioConn is what openRadio hands back: the bus, the interrupt pin if there is one
// and whatever needs closing on exit.
type radioConn struct {
	bus     *spibus.Bus
	pin     gateway.Pin
	closers []io.Closer
}

func (rc *radioConn) Close() {
	for i := len(rc.closers) - 1; i >= 0; i-- {
		rc.closers[i].Close()
	}
}

// openPeriph opens the SPI port and pins using periph.
func openPeriph(cfg RadioConfig) (*radioConn, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, fmt.Errorf("cannot open SPI %q: %s", cfg.SPI, err)
	}
	rc := &radioConn{closers: []io.Closer{port}}
	conn, err := port.Connect(physic.Frequency(cfg.Speed)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		rc.Close()
		return nil, err
	}

	var c spibus.Conn = conn
	if cfg.Select != "" {
		sel := gpioreg.ByName(cfg.Select)
		if sel == nil {
			rc.Close()
			return nil, fmt.Errorf("cannot open pin %s", cfg.Select)
		}
		d0, d1 := spimux.New(conn, sel)
		c = d0
		if cfg.Device == 1 {
			c = d1
		}
	}
	rc.bus = spibus.New(c)

	if cfg.Intr != "" {
		pin := gpioreg.ByName(cfg.Intr)
		if pin == nil {
			rc.Close()
			return nil, fmt.Errorf("cannot open pin %s", cfg.Intr)
		}
		if err := pin.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
			rc.Close()
			return nil, fmt.Errorf("pin %s: %s", cfg.Intr, err)
		}
		rc.pin = pin
	}
	return rc, nil
}

// openEmbd opens the SPI channel and interrupt pin using embd.
func openEmbd(cfg RadioConfig) (*radioConn, error) {
	ch, err := strconv.ParseUint(cfg.SPI, 10, 8)
	if cfg.SPI == "" {
		ch, err = 0, nil
	}
	if err != nil {
		return nil, fmt.Errorf("embd SPI must be a channel number: %s", err)
	}
	if err := devices.Init(); err != nil {
		return nil, err
	}
	s, err := devices.NewSPI(byte(ch), int(cfg.Speed))
	if err != nil {
		devices.Close()
		return nil, err
	}
	rc := &radioConn{bus: spibus.New(s), closers: []io.Closer{closerFunc(devices.Close), s}}
	if cfg.Intr != "" {
		pin, err := devices.NewGPIO(cfg.Intr)
		if err != nil {
			rc.Close()
			return nil, err
		}
		rc.pin = pin
		rc.closers = append(rc.closers, pin)
	}
	return rc, nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// setupLog directs the log to a rotated file if one is configured.
func setupLog(cfg LogConfig) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	})
}

// parseFlags loads the config file named by -config and applies the flags that were
// set on the command line on top.
func parseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("rfm69gw", flag.ExitOnError)
	cfgFile := fs.String("config", "", "YAML configuration file")
	debug := fs.Bool("debug", false, "enable debug output")
	bus := fs.String("bus", "", "hardware library: periph or embd")
	spiName := fs.String("spi", "", "SPI port name (periph) or channel (embd)")
	intr := fs.String("intr", "", "interrupt pin connected to DIO2")
	sel := fs.String("cspin", "", "chip select mux pin name")
	freq := fs.Uint("freq", 0, "center frequency in Hz")
	rate := fs.Uint("rate", 0, "bit rate in bps")
	power := fs.Int("power", 0, "output power in dBm")
	boost := fs.Bool("boost", false, "use the high power boost (rfm69hw only)")
	hp := fs.Bool("hw", false, "module is a high power rfm69hw/hcw")
	mqttHost := fs.String("mqtt", "", "host of MQTT broker")
	mqttPort := fs.Int("mqtt-port", 0, "port of MQTT broker")
	prefix := fs.String("prefix", "", "MQTT topic prefix")
	db := fs.String("db", "", "sqlite file to log packets to")
	logFile := fs.String("log", "", "log file, rotated")
	rt := fs.Int("realtime", 0, "realtime priority of the radio goroutine")
	vi := fs.Bool("varint", false, "decode received payloads as varints")
	jl := fs.Int("jeelabs", -1, "use the JeeLabs packet format with this group")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "Valid bit rates:")
		for r := range rfm69.Presets {
			fmt.Fprintf(os.Stderr, " %d", r)
		}
		fmt.Fprint(os.Stderr, "\n")
	}
	fs.Parse(args)

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Log.Debug = *debug
		case "bus":
			cfg.Radio.Bus = *bus
		case "spi":
			cfg.Radio.SPI = *spiName
		case "intr":
			cfg.Radio.Intr = *intr
		case "cspin":
			cfg.Radio.Select = *sel
		case "freq":
			cfg.Radio.Frequency = uint32(*freq)
		case "rate":
			cfg.Radio.Rate = uint32(*rate)
		case "power":
			cfg.Radio.Power = *power
		case "boost":
			cfg.Radio.Boost = *boost
		case "hw":
			cfg.Radio.HighPower = *hp
		case "mqtt":
			cfg.MQTT.Host = *mqttHost
		case "mqtt-port":
			cfg.MQTT.Port = *mqttPort
		case "prefix":
			cfg.MQTT.Prefix = *prefix
		case "db":
			cfg.DB = *db
		case "log":
			cfg.Log.File = *logFile
		case "realtime":
			cfg.Realtime = *rt
		case "varint":
			cfg.Varint = *vi
		case "jeelabs":
			cfg.Radio.JeeLabs = *jl >= 0
			cfg.Radio.Group = *jl
		}
	})
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	setupLog(cfg.Log)
	if err := run(cfg); err != nil {
		log.Printf("Exiting due to error: %s", err)
		os.Exit(2)
	}
}

func run(cfg *Config) error {
	var logger LogPrintf
	if cfg.Log.Debug {
		logger = log.Printf
	}

	log.Printf("Opening radio using %s", cfg.Radio.Bus)
	var rc *radioConn
	var err error
	if cfg.Radio.Bus == "embd" {
		rc, err = openEmbd(cfg.Radio)
	} else {
		rc, err = openPeriph(cfg.Radio)
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	rcfg, err := cfg.Radio.rfm69Config()
	if err != nil {
		return err
	}
	rcfg.Logger = rfm69.LogPrintf(logger)
	radio, err := rfm69.New(rc.bus, rcfg)
	if err != nil {
		return err
	}
	switch v := radio.Chip().Version(); v {
	case 0x23, 0x24:
		log.Printf("Found sx1231 version %#x", v)
	default:
		return fmt.Errorf("no radio found, version register is %#x", v)
	}
	radio.Receive()

	mq, err := newMQ(cfg.MQTT, logger)
	if err != nil {
		return fmt.Errorf("cannot connect to MQTT broker: %s", err)
	}
	defer mq.Close()

	gw := gateway.New(radio, rc.pin, mq, gateway.Config{
		Addressing:     cfg.Radio.Addressing,
		VariableLength: cfg.Radio.Variable,
		PayloadLength:  cfg.Radio.Payload,
		Varint:         cfg.Varint,
		JeeLabs:        cfg.Radio.JeeLabs,
		Group:          byte(cfg.Radio.Group),
		Node:           byte(cfg.Radio.Node),
		Logger:         gateway.LogPrintf(logger),
	})
	if cfg.DB != "" {
		store, err := pktlog.Open(pktlog.Config{Path: cfg.DB, Keep: cfg.Keep}, log.Default())
		if err != nil {
			return err
		}
		defer store.Close()
		gw.SetRecorder(store)
	}
	mq.subscribeTx(gw.Send)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		if cfg.Realtime > 0 {
			if err := thread.Realtime(cfg.Realtime); err != nil {
				log.Printf("%s", err)
			}
		}
		done <- gw.Run(ctx)
	}()
	log.Printf("Gateway is ready")

	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-done:
			log.Printf("Bye...")
			return nil
		case <-tick.C:
			s := gw.Stats()
			log.Printf("rx=%d tx=%d dropped=%d intr=%d missed=%d", s.Rx, s.Tx, s.Dropped,
				s.Interrupts, s.Missed)
			if err := mq.PublishStatus(s); err != nil {
				log.Printf("%s", err)
			}
			if err := rc.bus.Err(); err != nil {
				cancel()
				<-done
				return err
			}
		}
	}
}
