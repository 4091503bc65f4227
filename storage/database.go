// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
)

const (
	lockFile = "LOCK.governor"
	dbDir    = "governance"
)

var errDatadirUsed = errors.New("data directory already used by another process")

// Database is a key/value store holding governance state. On-disk databases
// hold an exclusive lock on their data directory until closed.
type Database struct {
	ethdb.KeyValueStore

	mu     sync.Mutex
	lock   *flock.Flock
	path   string
	closed bool
}

// Open opens the database described by config
func Open(config *StorageConfig) (*Database, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Engine == EngineMemory {
		log.Info("Using in-memory governance database")
		return &Database{KeyValueStore: memorydb.New()}, nil
	}

	if err := os.MkdirAll(config.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	lock := flock.New(filepath.Join(config.DataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", errDatadirUsed, config.DataDir)
	}

	path := filepath.Join(config.DataDir, dbDir)
	var kv ethdb.KeyValueStore
	switch config.Engine {
	case EngineLevelDB:
		kv, err = leveldb.New(path, config.Cache, config.Handles, config.Namespace, config.ReadOnly)
	case EnginePebble:
		kv, err = pebble.New(path, config.Cache, config.Handles, config.Namespace, config.ReadOnly)
	}
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open %s database: %w", config.Engine, err)
	}
	log.Info("Opened governance database", "engine", config.Engine, "path", path, "cache", config.Cache, "handles", config.Handles, "readonly", config.ReadOnly)

	return &Database{
		KeyValueStore: kv,
		lock:          lock,
		path:          path,
	}, nil
}

// Path returns the on-disk location of the database, empty for memory
func (db *Database) Path() string {
	return db.path
}

// Close closes the store and releases the data directory lock
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	err := db.KeyValueStore.Close()
	if db.lock != nil {
		if uerr := db.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}
