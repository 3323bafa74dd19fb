// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
radio:
  bus: embd
  spi: "1"
  frequency: 915750000
  rate: 9600
  payload: 20
  addressing: true
  node: 3
  sync: "0x2d2a"
  aesKey: "000102030405060708090a0b0c0d0e0f"
mqtt:
  host: broker.lan
  prefix: home/rf
db: /var/lib/rfm69gw.db
`

func writeConfig(t *testing.T, s string) string {
	fn := filepath.Join(t.TempDir(), "gw.yaml")
	if err := os.WriteFile(fn, []byte(s), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, testYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	r := cfg.Radio
	if r.Bus != "embd" || r.Frequency != 915750000 || r.Rate != 9600 || r.Payload != 20 {
		t.Errorf("radio config: %+v", r)
	}
	// Defaults survive.
	if r.Slots != 8 || r.Broadcast != 0xff || cfg.MQTT.Port != 1883 {
		t.Errorf("defaults lost: %+v %+v", r, cfg.MQTT)
	}
	if cfg.MQTT.Prefix != "home/rf" || cfg.DB != "/var/lib/rfm69gw.db" {
		t.Errorf("config: %+v", cfg)
	}

	rc, err := r.rfm69Config()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rc.Sync, []byte{0x2d, 0x2a}) {
		t.Errorf("sync: %#v", rc.Sync)
	}
	if !rc.AES || len(rc.AESKey) != 16 || rc.AESKey[15] != 0x0f {
		t.Errorf("AES: %v %#v", rc.AES, rc.AESKey)
	}
	if !rc.Addressing || rc.NodeAddress != 3 || !rc.VariableLength {
		t.Errorf("rfm69 config: %+v", rc)
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("RFM69GW_MQTT_PASSWORD", "s3cret")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTT.Password != "s3cret" {
		t.Errorf("password not taken from the environment")
	}
}

func TestConfigInvalid(t *testing.T) {
	tests := map[string]func(c *Config){
		"bus":      func(c *Config) { c.Radio.Bus = "i2c" },
		"embd mux": func(c *Config) { c.Radio.Bus = "embd"; c.Radio.Select = "CSID0" },
		"device":   func(c *Config) { c.Radio.Device = 2 },
		"node":     func(c *Config) { c.Radio.Node = 256 },
		"prefix":   func(c *Config) { c.MQTT.Prefix = "rf/#" },
		"sync":     func(c *Config) { c.Radio.Sync = "xyz" },
		"aes":      func(c *Config) { c.Radio.AESKey = "0102" },
		"rate":     func(c *Config) { c.Radio.Rate = 1234 },
		"payload":  func(c *Config) { c.Radio.Payload = 65 },
		"slots":    func(c *Config) { c.Radio.Slots = 0 },
		"realtime": func(c *Config) { c.Realtime = 100 },
		"no freq":  func(c *Config) { c.Radio.Frequency = 0 },
		"jl addr":  func(c *Config) { c.Radio.JeeLabs = true; c.Radio.Addressing = true },
		"jl node":  func(c *Config) { c.Radio.JeeLabs = true; c.Radio.Node = 64 },
	}
	for n, mod := range tests {
		cfg := defaultConfig()
		mod(cfg)
		if err := cfg.validate(); err == nil {
			t.Errorf("%s: expected an error", n)
		}
	}
	if err := defaultConfig().validate(); err != nil {
		t.Errorf("default config: %s", err)
	}
}

func TestParseFlags(t *testing.T) {
	fn := writeConfig(t, testYAML)
	cfg, err := parseFlags([]string{"-config", fn, "-freq", "868300000", "-prefix", "rf"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Radio.Frequency != 868300000 || cfg.MQTT.Prefix != "rf" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	// Not given on the command line: the file's value stays.
	if cfg.Radio.Rate != 9600 {
		t.Errorf("rate: %d", cfg.Radio.Rate)
	}
}

func TestJeeLabsConfig(t *testing.T) {
	cfg, err := parseFlags([]string{"-jeelabs", "212"})
	if err != nil {
		t.Fatal(err)
	}
	rc, err := cfg.Radio.rfm69Config()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rc.Sync, []byte{0x2d, 212}) {
		t.Errorf("sync: %#v", rc.Sync)
	}
}

func TestDecodeTx(t *testing.T) {
	tests := map[string]struct {
		json    string
		addr    byte
		payload []byte
		values  []int
		err     bool
	}{
		"base64": {`{"addr":5,"payload":"AQID"}`, 5, []byte{1, 2, 3}, nil, false},
		"text":   {`{"text":"hello"}`, 0, []byte("hello"), nil, false},
		"values": {`{"values":[1,-2]}`, 0, nil, []int{1, -2}, false},
		"empty":  {`{"addr":1}`, 0, nil, nil, true},
		"bad":    {`{"payload":`, 0, nil, nil, true},
	}
	for n, tc := range tests {
		p, err := decodeTx([]byte(tc.json))
		if tc.err {
			if err == nil {
				t.Errorf("%s: expected an error", n)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %s", n, err)
			continue
		}
		if p.Addr != tc.addr || !bytes.Equal(p.Payload, tc.payload) || len(p.Values) != len(tc.values) {
			t.Errorf("%s: got %+v", n, p)
		}
	}
}
