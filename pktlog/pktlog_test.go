// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package pktlog

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T, keep int) *Store {
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "pkt.db"), Keep: keep}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecord(t *testing.T) {
	s := openTest(t, 0)
	t0 := time.Date(2017, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Record(Rx, t0, -1, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(Tx, t0.Add(time.Second), 7, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	pkts, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(pkts))
	}
	if p := pkts[0]; p.Dir != Tx || p.Addr != 7 || p.Len != 5 || !bytes.Equal(p.Payload, []byte("hello")) {
		t.Errorf("newest packet is %+v", p)
	}
	if p := pkts[1]; p.Dir != Rx || p.Addr != -1 || !p.At.Equal(t0) {
		t.Errorf("oldest packet is %+v", p)
	}

	for dir, exp := range map[string]int64{Rx: 1, Tx: 1, "": 2} {
		if n, err := s.Count(dir); err != nil || n != exp {
			t.Errorf("Count(%q): got %d, %v expected %d", dir, n, err, exp)
		}
	}
}

func TestRecordBadDir(t *testing.T) {
	s := openTest(t, 0)
	if err := s.Record("up", time.Now(), 0, nil); err == nil {
		t.Errorf("expected an error")
	}
}

func TestPrune(t *testing.T) {
	s := openTest(t, 5)
	for i := 0; i < 20; i++ {
		if err := s.Record(Rx, time.Now(), -1, []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Count("")
	if err != nil {
		t.Fatal(err)
	}
	if n < 5 || n > 6 {
		t.Errorf("expected 5 or 6 packets after pruning, got %d", n)
	}
	pkts, err := s.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if pkts[0].Payload[0] != 19 {
		t.Errorf("newest packet is %+v", pkts[0])
	}
}

func TestOpenNoPath(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Errorf("expected an error")
	}
}
