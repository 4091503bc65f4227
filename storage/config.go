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

import "fmt"

// Engine names a key/value backend
type Engine string

const (
	EngineMemory  Engine = "memory"  // 内存数据库（测试）
	EngineLevelDB Engine = "leveldb" // goleveldb
	EnginePebble  Engine = "pebble"  // pebble（默认）
)

// StorageConfig defines configuration for the storage module
type StorageConfig struct {
	Engine    Engine `toml:"engine" yaml:"engine"`
	DataDir   string `toml:"datadir" yaml:"datadir"`     // 数据目录
	Cache     int    `toml:"cache" yaml:"cache"`         // 缓存大小 (MB)
	Handles   int    `toml:"handles" yaml:"handles"`     // 文件句柄数
	Namespace string `toml:"namespace" yaml:"namespace"` // 指标前缀
	ReadOnly  bool   `toml:"readonly" yaml:"readonly"`
}

// DefaultStorageConfig returns the default storage configuration
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		Engine:    EnginePebble,
		DataDir:   "governor-data",
		Cache:     64,
		Handles:   256,
		Namespace: "governor/db/",
	}
}

// Validate checks the storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Engine {
	case EngineMemory:
		return nil
	case EngineLevelDB, EnginePebble:
	default:
		return fmt.Errorf("unknown database engine %q", c.Engine)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%s database needs a data directory", c.Engine)
	}
	if c.Cache < 0 || c.Handles < 0 {
		return fmt.Errorf("invalid database limits: cache %d, handles %d", c.Cache, c.Handles)
	}
	return nil
}
