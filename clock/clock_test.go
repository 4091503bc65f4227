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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(10)
	require.Equal(t, uint64(10), c.CurrentOrdinal())

	require.NoError(t, c.Set(10))
	require.NoError(t, c.Set(15))
	require.ErrorIs(t, c.Set(14), errClockRewind)
	require.Equal(t, uint64(15), c.CurrentOrdinal())

	require.Equal(t, uint64(18), c.Advance(3))
}

func TestIntervalClock(t *testing.T) {
	sim := new(mclock.Simulated)
	c, err := NewIntervalClock(sim, 100, time.Second)
	require.NoError(t, err)
	require.Equal(t, uint64(100), c.CurrentOrdinal())

	sim.Run(999 * time.Millisecond)
	require.Equal(t, uint64(100), c.CurrentOrdinal())

	sim.Run(time.Millisecond)
	require.Equal(t, uint64(101), c.CurrentOrdinal())

	sim.Run(10 * time.Second)
	require.Equal(t, uint64(111), c.CurrentOrdinal())

	_, err = NewIntervalClock(sim, 0, 0)
	require.Error(t, err)
}

type fakeChain struct {
	mu    sync.Mutex
	heads []uint64
	err   error
	calls int
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	head := f.heads[0]
	if len(f.heads) > 1 {
		f.heads = f.heads[1:]
	}
	return head, nil
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestChainClock_Monotone(t *testing.T) {
	chain := &fakeChain{heads: []uint64{5, 9, 7, 12}}
	c := NewChainClock(chain, time.Millisecond)

	want := []uint64{5, 9, 9, 12}
	for _, w := range want {
		require.NoError(t, c.Sync(context.Background()))
		require.Equal(t, w, c.CurrentOrdinal())
	}
}

func TestChainClock_SyncError(t *testing.T) {
	chain := &fakeChain{err: errors.New("connection refused")}
	c := NewChainClock(chain, time.Millisecond)

	require.Error(t, c.Sync(context.Background()))
	require.Zero(t, c.CurrentOrdinal())
}

func TestChainClock_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	chain := &fakeChain{heads: []uint64{1, 2, 3}}
	c := NewChainClock(chain, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return c.CurrentOrdinal() == 3 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.GreaterOrEqual(t, chain.callCount(), 3)
}
