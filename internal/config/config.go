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

// Package config holds the node configuration of the governor service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/xchain/governor/genesis"
	"github.com/xchain/governor/storage"
	"gopkg.in/yaml.v3"
)

// Clock sources
const (
	ClockInterval = "interval"
	ClockChain    = "chain"
	ClockManual   = "manual"
)

// Config is the complete node configuration
type Config struct {
	Storage    storage.StorageConfig `toml:"storage" yaml:"storage"`
	Governance GovernanceConfig      `toml:"governance" yaml:"governance"`
	Clock      ClockConfig           `toml:"clock" yaml:"clock"`
	RPC        RPCConfig             `toml:"rpc" yaml:"rpc"`
	Log        LogConfig             `toml:"log" yaml:"log"`
}

// GovernanceConfig holds the bootstrap parameters of the contract. They are
// applied once, when the database holds no contract for Owner yet.
type GovernanceConfig struct {
	Owner            string        `toml:"owner" yaml:"owner"`
	Admins           []string      `toml:"admins" yaml:"admins"`
	TokenRequirement uint64        `toml:"token_requirement" yaml:"token_requirement"`
	VotingPowers     []PowerConfig `toml:"voting_powers" yaml:"voting_powers"`
}

// PowerConfig is an initial voting power assignment
type PowerConfig struct {
	Account string `toml:"account" yaml:"account"`
	Weight  uint64 `toml:"weight" yaml:"weight"`
}

// ClockConfig selects the ordinal source
type ClockConfig struct {
	Source   string        `toml:"source" yaml:"source"`
	Interval time.Duration `toml:"interval" yaml:"interval"` // 出块间隔 / 轮询间隔
	Base     uint64        `toml:"base" yaml:"base"`         // interval/manual 起始序号
	ChainURL string        `toml:"chain_url" yaml:"chain_url"`
}

// RPCConfig configures the JSON-RPC endpoints
type RPCConfig struct {
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	WS          bool     `toml:"ws" yaml:"ws"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	JWTSecret   string   `toml:"jwt_secret" yaml:"jwt_secret"` // 密钥文件路径，空则不鉴权
	Metrics     bool     `toml:"metrics" yaml:"metrics"`
}

// LogConfig configures logging
type LogConfig struct {
	Verbosity  int    `toml:"verbosity" yaml:"verbosity"`
	JSON       bool   `toml:"json" yaml:"json"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		Storage: *storage.DefaultStorageConfig(),
		Clock: ClockConfig{
			Source:   ClockInterval,
			Interval: 2 * time.Second,
		},
		RPC: RPCConfig{
			Host:        "127.0.0.1",
			Port:        8645,
			WS:          true,
			CORSOrigins: []string{"*"},
			Metrics:     true,
		},
		Log: LogConfig{
			Verbosity:  3,
			MaxSizeMB:  100,
			MaxBackups: 10,
		},
	}
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".toml":
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("invalid toml config %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid yaml config %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q", ext)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dump encodes the configuration as TOML
func (c *Config) Dump() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Bootstrap returns the deployment parameters of the governance contract.
// The configuration must have been validated.
func (c *Config) Bootstrap() *genesis.BootstrapConfig {
	bc := genesis.DefaultBootstrapConfig()
	bc.Owner = common.HexToAddress(c.Governance.Owner)
	bc.TokenRequirement = c.Governance.TokenRequirement
	for _, admin := range c.Governance.Admins {
		bc.Admins = append(bc.Admins, common.HexToAddress(admin))
	}
	for _, p := range c.Governance.VotingPowers {
		bc.VotingPowers = append(bc.VotingPowers, genesis.PowerAllocation{
			Account: common.HexToAddress(p.Account),
			Weight:  p.Weight,
		})
	}
	return bc
}

// HTTPEndpoint returns the host:port the RPC server listens on
func (c *RPCConfig) HTTPEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
