// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/tve/plainrfm69/jeelabs"
	"github.com/tve/plainrfm69/rfm69"
	"gopkg.in/yaml.v2"
)

// Config is the gateway configuration. It is assembled from defaults, an optional YAML
// file, environment variables and finally command line flags.
type Config struct {
	Radio    RadioConfig `yaml:"radio"`
	MQTT     MqttConfig  `yaml:"mqtt"`
	Log      LogConfig   `yaml:"log"`
	DB       string      `yaml:"db"`       // sqlite packet log, empty to disable
	Keep     int         `yaml:"keep"`     // packets kept in the log
	Varint   bool        `yaml:"varint"`   // decode payloads as varints
	Realtime int         `yaml:"realtime"` // realtime priority of the worker, 0 to disable
}

// RadioConfig describes how the radio is connected and configured.
type RadioConfig struct {
	Bus        string `yaml:"bus"`    // periph or embd
	SPI        string `yaml:"spi"`    // periph port name, or embd channel number
	Speed      int64  `yaml:"speed"`  // SPI clock in Hz
	Intr       string `yaml:"intr"`   // pin connected to DIO2, empty to poll
	Select     string `yaml:"select"` // spimux select pin (periph only)
	Device     int    `yaml:"device"` // device on the spimux, 0 or 1
	Frequency  uint32 `yaml:"frequency"`
	Rate       uint32 `yaml:"rate"`
	Power      int    `yaml:"power"`
	Boost      bool   `yaml:"boost"`
	HighPower  bool   `yaml:"highPower"`
	Variable   bool   `yaml:"variable"`
	Addressing bool   `yaml:"addressing"`
	Payload    int    `yaml:"payload"`
	Slots      int    `yaml:"slots"`
	Node       int    `yaml:"node"`
	Broadcast  int    `yaml:"broadcast"`
	Sync       string `yaml:"sync"`    // hex, first byte sent first
	AESKey     string `yaml:"aesKey"`  // 32 hex digits, empty to disable
	JeeLabs    bool   `yaml:"jeelabs"` // JeeLabs packet format, Node is the node ID
	Group      int    `yaml:"group"`   // JeeLabs group, replaces Sync
}

// MqttConfig describes the broker connection.
type MqttConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"` // topic prefix, packets go to <prefix>/rx and /tx
}

// LogConfig controls where the log goes.
type LogConfig struct {
	File       string `yaml:"file"`       // log file, empty for stderr
	MaxSize    int    `yaml:"maxSize"`    // megabytes before rotating
	MaxBackups int    `yaml:"maxBackups"` // rotated files to keep
	Debug      bool   `yaml:"debug"`
}

func defaultConfig() *Config {
	return &Config{
		Radio: RadioConfig{
			Bus:       "periph",
			Speed:     4000000,
			Intr:      "XIO-P0",
			Frequency: 868000000,
			Rate:      4800,
			Power:     13,
			Variable:  true,
			Payload:   rfm69.MaxPayload,
			Slots:     8,
			Broadcast: 0xff,
			Sync:      "2d06",
		},
		MQTT: MqttConfig{
			Host:   "localhost",
			Port:   1883,
			Prefix: "rfm69",
		},
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
		},
		Keep: 10000,
	}
}

// loadConfig returns the default configuration overridden by the file, if any, and the
// environment.
func loadConfig(filename string) (*Config, error) {
	cfg := defaultConfig()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %s", filename, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv keeps broker credentials out of config files.
func applyEnv(cfg *Config) {
	if u := os.Getenv("RFM69GW_MQTT_USER"); u != "" {
		cfg.MQTT.User = u
	}
	if p := os.Getenv("RFM69GW_MQTT_PASSWORD"); p != "" {
		cfg.MQTT.Password = p
	}
}

func (cfg *Config) validate() error {
	r := &cfg.Radio
	switch r.Bus {
	case "periph":
	case "embd":
		if r.Select != "" {
			return fmt.Errorf("spimux select pin is only supported with periph")
		}
	default:
		return fmt.Errorf("unknown bus %q, use periph or embd", r.Bus)
	}
	if r.Device != 0 && r.Device != 1 {
		return fmt.Errorf("spimux device must be 0 or 1")
	}
	if r.Node < 0 || r.Node > 255 || r.Broadcast < 0 || r.Broadcast > 255 {
		return fmt.Errorf("addresses must be in 0..255")
	}
	if cfg.MQTT.Prefix == "" || strings.ContainsAny(cfg.MQTT.Prefix, "#+") {
		return fmt.Errorf("invalid MQTT topic prefix %q", cfg.MQTT.Prefix)
	}
	if r.JeeLabs && (r.Addressing || r.Group < 0 || r.Group > 255 || r.Node > jeelabs.Promiscuous) {
		return fmt.Errorf("jeelabs needs no addressing, a group in 0..255 and a node in 0..63")
	}
	if cfg.Realtime < 0 || cfg.Realtime > 99 {
		return fmt.Errorf("realtime priority must be in 0..99")
	}
	_, err := r.rfm69Config()
	return err
}

// rfm69Config converts the radio section into the packet engine configuration.
func (r *RadioConfig) rfm69Config() (rfm69.Config, error) {
	sync, err := hex.DecodeString(strings.TrimPrefix(r.Sync, "0x"))
	if err != nil {
		return rfm69.Config{}, fmt.Errorf("invalid sync %q: %s", r.Sync, err)
	}
	if r.JeeLabs {
		sync = jeelabs.Sync(byte(r.Group))
	}
	var key []byte
	if r.AESKey != "" {
		if key, err = hex.DecodeString(r.AESKey); err != nil {
			return rfm69.Config{}, fmt.Errorf("invalid AES key: %s", err)
		}
	}
	c := rfm69.Config{
		VariableLength:   r.Variable,
		Addressing:       r.Addressing,
		AES:              key != nil,
		AESKey:           key,
		PayloadLength:    r.Payload,
		Slots:            r.Slots,
		NodeAddress:      byte(r.Node),
		BroadcastAddress: byte(r.Broadcast),
		Sync:             sync,
		Frequency:        r.Frequency,
		Rate:             r.Rate,
		Power:            r.Power,
		Boost:            r.Boost,
		HighPower:        r.HighPower,
	}
	if err := c.Validate(); err != nil {
		return rfm69.Config{}, err
	}
	return c, nil
}
