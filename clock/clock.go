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

// Package clock provides ordinal sources for the governance contract. An
// ordinal is a monotone counter, normally a block height, that gates the
// voting window of proposals.
package clock

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
)

var errClockRewind = errors.New("ordinal clock cannot go backwards")

// ManualClock is an ordinal source moved explicitly by its owner
type ManualClock struct {
	ordinal atomic.Uint64
}

// NewManualClock creates a manual clock starting at ordinal
func NewManualClock(ordinal uint64) *ManualClock {
	c := new(ManualClock)
	c.ordinal.Store(ordinal)
	return c
}

// CurrentOrdinal implements governance.Clock
func (c *ManualClock) CurrentOrdinal() uint64 {
	return c.ordinal.Load()
}

// Set moves the clock to ordinal, which must not be below the current one
func (c *ManualClock) Set(ordinal uint64) error {
	for {
		cur := c.ordinal.Load()
		if ordinal < cur {
			return fmt.Errorf("%w: %d < %d", errClockRewind, ordinal, cur)
		}
		if c.ordinal.CompareAndSwap(cur, ordinal) {
			return nil
		}
	}
}

// Advance moves the clock forward by n and returns the new ordinal
func (c *ManualClock) Advance(n uint64) uint64 {
	return c.ordinal.Add(n)
}

// IntervalClock derives the ordinal from elapsed time: one ordinal per
// interval since the clock was started at base.
type IntervalClock struct {
	clock    mclock.Clock
	start    mclock.AbsTime
	base     uint64
	interval time.Duration
}

// NewIntervalClock creates a time based clock reading ordinal base now
func NewIntervalClock(clock mclock.Clock, base uint64, interval time.Duration) (*IntervalClock, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid clock interval %v", interval)
	}
	return &IntervalClock{
		clock:    clock,
		start:    clock.Now(),
		base:     base,
		interval: interval,
	}, nil
}

// CurrentOrdinal implements governance.Clock
func (c *IntervalClock) CurrentOrdinal() uint64 {
	elapsed := c.clock.Now().Sub(c.start)
	if elapsed < 0 {
		return c.base
	}
	return c.base + uint64(elapsed/c.interval)
}
