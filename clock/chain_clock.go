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

package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

// blockNumberReader is the part of ethclient.Client the chain clock needs
type blockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// ChainClock follows the head block number of an Ethereum compatible chain.
// The reported ordinal never decreases, even across reorgs.
type ChainClock struct {
	reader   blockNumberReader
	interval time.Duration
	ordinal  atomic.Uint64
	logger   log.Logger
}

// NewChainClock creates a clock polling reader every interval
func NewChainClock(reader blockNumberReader, interval time.Duration) *ChainClock {
	return &ChainClock{
		reader:   reader,
		interval: interval,
		logger:   log.New("clock", "chain"),
	}
}

// DialChainClock connects to the node at url and reads the current head once
func DialChainClock(ctx context.Context, url string, interval time.Duration) (*ChainClock, func(), error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	c := NewChainClock(client, interval)
	if err := c.Sync(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	return c, client.Close, nil
}

// CurrentOrdinal implements governance.Clock
func (c *ChainClock) CurrentOrdinal() uint64 {
	return c.ordinal.Load()
}

// Sync reads the chain head once
func (c *ChainClock) Sync(ctx context.Context) error {
	head, err := c.reader.BlockNumber(ctx)
	if err != nil {
		return err
	}
	for {
		cur := c.ordinal.Load()
		if head <= cur {
			if head < cur {
				c.logger.Debug("Ignoring lower chain head", "head", head, "ordinal", cur)
			}
			return nil
		}
		if c.ordinal.CompareAndSwap(cur, head) {
			return nil
		}
	}
}

// Run polls the chain head until ctx is cancelled. Poll failures are logged
// and retried on the next tick.
func (c *ChainClock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("Failed to read chain head", "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
