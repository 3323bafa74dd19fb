// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package pktlog records the packets that go through a gateway in an SQLite database.
// It uses the pure Go SQLite driver so the gateway can be cross-compiled for small ARM
// boards without cgo.
package pktlog

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Directions of a packet.
const (
	Rx = "rx"
	Tx = "tx"
)

// Packet is one logged packet.
type Packet struct {
	ID      uint      `gorm:"primarykey"`
	At      time.Time `gorm:"index"`
	Dir     string    `gorm:"size:2;index"`
	Addr    int       // destination address, -1 without addressing
	Len     int
	Payload []byte
}

// TableName specifies the table name for GORM.
func (Packet) TableName() string { return "packets" }

// Config holds the store configuration.
type Config struct {
	Path string // path to the SQLite database file
	Keep int    // number of packets to keep, 0 keeps everything
}

// Store is a packet log.
type Store struct {
	db   *gorm.DB
	keep int
	n    int // records since the last prune
}

// Open opens or creates the database and migrates the schema. The logger, if not nil,
// receives warnings and errors from GORM.
func Open(cfg Config, l *log.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("pktlog: no database path")
	}
	var gormLog logger.Interface
	if l != nil {
		gormLog = logger.New(l, logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Path},
		&gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("pktlog: cannot open %s: %s", cfg.Path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("pktlog: %s", err)
	}
	if err := configure(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pktlog: %s", err)
	}
	if err := db.AutoMigrate(&Packet{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pktlog: migrate: %s", err)
	}
	if l != nil {
		l.Printf("pktlog: logging packets to %s", cfg.Path)
	}
	return &Store{db: db, keep: cfg.Keep}, nil
}

func configure(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a packet. The payload is copied.
func (s *Store) Record(dir string, at time.Time, addr int, payload []byte) error {
	if dir != Rx && dir != Tx {
		return fmt.Errorf("pktlog: invalid direction %q", dir)
	}
	p := Packet{
		At:      at,
		Dir:     dir,
		Addr:    addr,
		Len:     len(payload),
		Payload: append([]byte{}, payload...),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return fmt.Errorf("pktlog: %s", err)
	}
	s.n++
	if s.keep > 0 && s.n >= s.keep/10+1 {
		s.n = 0
		return s.prune()
	}
	return nil
}

// prune deletes all but the newest keep packets.
func (s *Store) prune() error {
	var cutoff Packet
	err := s.db.Order("id desc").Offset(s.keep).Limit(1).Find(&cutoff).Error
	if err != nil {
		return fmt.Errorf("pktlog: prune: %s", err)
	}
	if cutoff.ID == 0 {
		return nil
	}
	if err := s.db.Where("id <= ?", cutoff.ID).Delete(&Packet{}).Error; err != nil {
		return fmt.Errorf("pktlog: prune: %s", err)
	}
	return nil
}

// Recent returns up to n of the most recent packets, newest first.
func (s *Store) Recent(n int) ([]Packet, error) {
	var pkts []Packet
	if err := s.db.Order("id desc").Limit(n).Find(&pkts).Error; err != nil {
		return nil, fmt.Errorf("pktlog: %s", err)
	}
	return pkts, nil
}

// Count returns the number of packets logged in the given direction, or in both if dir
// is empty.
func (s *Store) Count(dir string) (int64, error) {
	var n int64
	q := s.db.Model(&Packet{})
	if dir != "" {
		q = q.Where("dir = ?", dir)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("pktlog: %s", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
