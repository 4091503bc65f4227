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

package config

import (
	"fmt"
	"os"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/xchain/governor/genesis"
	"github.com/xchain/governor/storage"
)

// Validate checks the configuration for consistency. Layers are applied in
// order file < environment < command line before validation.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Governance.validate(); err != nil {
		return err
	}
	switch c.Clock.Source {
	case ClockInterval, ClockManual:
	case ClockChain:
		if c.Clock.ChainURL == "" {
			return fmt.Errorf("chain clock needs a chain url")
		}
	default:
		return fmt.Errorf("unknown clock source %q", c.Clock.Source)
	}
	if c.Clock.Source != ClockManual && c.Clock.Interval <= 0 {
		return fmt.Errorf("invalid clock interval %v", c.Clock.Interval)
	}
	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("invalid rpc port %d", c.RPC.Port)
	}
	if c.Log.Verbosity < 0 || c.Log.Verbosity > 5 {
		return fmt.Errorf("invalid log verbosity %d", c.Log.Verbosity)
	}
	return nil
}

func (g *GovernanceConfig) validate() error {
	if !common.IsHexAddress(g.Owner) || common.HexToAddress(g.Owner) == (common.Address{}) {
		return fmt.Errorf("invalid governance owner %q", g.Owner)
	}
	if len(g.Admins) > genesis.MaxBootstrapAdmins {
		return fmt.Errorf("too many bootstrap admins: %d > %d", len(g.Admins), genesis.MaxBootstrapAdmins)
	}
	admins := mapset.NewThreadUnsafeSet[common.Address]()
	for _, admin := range g.Admins {
		if !common.IsHexAddress(admin) {
			return fmt.Errorf("invalid admin address %q", admin)
		}
		if !admins.Add(common.HexToAddress(admin)) {
			return fmt.Errorf("duplicate admin %s", admin)
		}
	}
	accounts := mapset.NewThreadUnsafeSet[common.Address]()
	for _, p := range g.VotingPowers {
		if !common.IsHexAddress(p.Account) {
			return fmt.Errorf("invalid voting power account %q", p.Account)
		}
		if !accounts.Add(common.HexToAddress(p.Account)) {
			return fmt.Errorf("duplicate voting power for %s", p.Account)
		}
	}
	return nil
}

// applyEnv overrides configuration values from GOVERNOR_* environment variables
func applyEnv(c *Config) error {
	c.Storage.DataDir = getEnvOrDefault("GOVERNOR_DATADIR", c.Storage.DataDir)
	c.Storage.Engine = storage.Engine(getEnvOrDefault("GOVERNOR_DB_ENGINE", string(c.Storage.Engine)))
	c.Governance.Owner = getEnvOrDefault("GOVERNOR_OWNER", c.Governance.Owner)
	c.Clock.Source = getEnvOrDefault("GOVERNOR_CLOCK", c.Clock.Source)
	c.Clock.ChainURL = getEnvOrDefault("GOVERNOR_CHAIN_URL", c.Clock.ChainURL)
	c.RPC.Host = getEnvOrDefault("GOVERNOR_HTTP_HOST", c.RPC.Host)
	c.RPC.JWTSecret = getEnvOrDefault("GOVERNOR_JWT_SECRET", c.RPC.JWTSecret)

	if v := os.Getenv("GOVERNOR_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GOVERNOR_HTTP_PORT %q: %w", v, err)
		}
		c.RPC.Port = port
	}
	if v := os.Getenv("GOVERNOR_VERBOSITY"); v != "" {
		verbosity, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GOVERNOR_VERBOSITY %q: %w", v, err)
		}
		c.Log.Verbosity = verbosity
	}
	return nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
