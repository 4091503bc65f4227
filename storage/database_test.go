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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	db, err := Open(&StorageConfig{Engine: EngineMemory})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	val, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)
	require.Empty(t, db.Path())
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	for _, engine := range []Engine{EngineLevelDB, EnginePebble} {
		t.Run(string(engine), func(t *testing.T) {
			cfg := DefaultStorageConfig()
			cfg.Engine = engine
			cfg.DataDir = t.TempDir()
			cfg.Cache = 16
			cfg.Handles = 16

			db, err := Open(cfg)
			require.NoError(t, err)
			batch := db.NewBatch()
			require.NoError(t, batch.Put([]byte("proposal"), []byte{1, 2, 3}))
			require.NoError(t, batch.Write())
			require.NoError(t, db.Close())
			require.NoError(t, db.Close(), "second close must be a no-op")

			db, err = Open(cfg)
			require.NoError(t, err)
			defer db.Close()
			val, err := db.Get([]byte("proposal"))
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, val)
		})
	}
}

func TestOpen_DatadirLocked(t *testing.T) {
	cfg := DefaultStorageConfig()
	cfg.Engine = EngineLevelDB
	cfg.DataDir = t.TempDir()

	db, err := Open(cfg)
	require.NoError(t, err)

	_, err = Open(cfg)
	require.ErrorIs(t, err, errDatadirUsed)

	require.NoError(t, db.Close())
	db, err = Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestStorageConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr bool
	}{
		{"memory", StorageConfig{Engine: EngineMemory}, false},
		{"pebble", StorageConfig{Engine: EnginePebble, DataDir: "/tmp/x"}, false},
		{"unknown engine", StorageConfig{Engine: "rocksdb", DataDir: "/tmp/x"}, true},
		{"missing datadir", StorageConfig{Engine: EngineLevelDB}, true},
		{"negative cache", StorageConfig{Engine: EngineLevelDB, DataDir: "/tmp/x", Cache: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
	require.NoError(t, DefaultStorageConfig().Validate())
}
