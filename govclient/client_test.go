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

package govclient

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"github.com/xchain/governor/clock"
	"github.com/xchain/governor/genesis"
	"github.com/xchain/governor/governance"
)

type testNode struct {
	clock  *clock.ManualClock
	client *Client
	owner  *Client
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	db := memorydb.New()
	clk := clock.NewManualClock(100)
	gc, err := governance.NewGovernanceContract(db, clk, &genesis.BootstrapConfig{
		Owner: crypto.PubkeyToAddress(ownerKey.PublicKey),
	})
	require.NoError(t, err)

	server := rpc.NewServer()
	for _, api := range governance.APIs(gc, governance.NewAuthenticator(db, gc.Address())) {
		require.NoError(t, server.RegisterName(api.Namespace, api.Service))
	}
	client := NewClient(rpc.DialInProc(server))
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return &testNode{clock: clk, client: client, owner: client.WithKey(ownerKey)}
}

func newVoter(t *testing.T, n *testNode) (*Client, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return n.client.WithKey(key), key
}

func TestClient_Voting(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	voter, _ := newVoter(t, n)

	owner, err := n.client.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, n.owner.Account(), owner)

	require.NoError(t, n.owner.SetVotingPower(ctx, voter.Account(), 12))
	id, err := voter.CreateProposal(ctx, &governance.ProposalDraft{
		Title:    "Adopt fee schedule",
		Duration: 10,
		Options:  []string{"yes", "no"},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	active, err := n.client.IsActive(ctx, id)
	require.NoError(t, err)
	require.False(t, active, "window opens at the next ordinal")

	require.NoError(t, n.clock.Set(101))
	require.NoError(t, voter.CastVote(ctx, id, 1))
	require.NoError(t, voter.ChangeVote(ctx, id, 2))

	res, err := n.client.Results(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(12), res.TotalVotes)
	require.Equal(t, uint64(12), res.Tally(2))

	rec, err := n.client.Vote(ctx, id, voter.Account())
	require.NoError(t, err)
	require.Equal(t, uint64(2), rec.Option)

	roster, err := n.client.Roster(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []common.Address{voter.Account()}, roster)

	ps, err := n.client.Proposals(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.Equal(t, "Adopt fee schedule", ps[0].Title)
}

func TestClient_ErrorMapping(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	stranger, _ := newVoter(t, n)

	require.ErrorIs(t, stranger.Pause(ctx), governance.ErrNotAdmin)
	require.ErrorIs(t, n.owner.Unpause(ctx), governance.ErrVotingNotPaused)
	_, err := n.client.Proposal(ctx, 5)
	require.ErrorIs(t, err, governance.ErrProposalNotFound)
	require.ErrorIs(t, n.owner.BatchSetVotingPower(ctx, []common.Address{stranger.Account()}, nil), governance.ErrArityMismatch)

	// Rejected calls still consume the nonce
	nonce, err := n.client.Nonce(ctx, stranger.Account())
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	require.ErrorIs(t, n.client.Pause(ctx), errNoKey)
}

func TestClient_NonceResync(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	target := common.HexToAddress("0x42")

	require.NoError(t, n.owner.Blacklist(ctx, target))

	// A second client with the same key moves the nonce behind our back
	other := n.client.WithKey(n.owner.key)
	require.NoError(t, other.Unblacklist(ctx, target))

	require.ErrorIs(t, n.owner.Blacklist(ctx, target), governance.ErrInvalidNonce)
	require.NoError(t, n.owner.Blacklist(ctx, target), "nonce is refetched after a rejection")

	blacklisted, err := n.client.IsBlacklisted(ctx, target)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestClient_SubscribeEvents(t *testing.T) {
	n := newTestNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan governance.Event, 4)
	sub, err := n.client.SubscribeEvents(ctx, events)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, n.owner.SetTokenRequirement(ctx, 3))
	select {
	case ev := <-events:
		require.Equal(t, governance.EventTokenRequirement, ev.Kind)
		require.Equal(t, n.owner.Account(), ev.Actor)
	case err := <-sub.Err():
		t.Fatalf("subscription failed: %v", err)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}

	requirement, err := n.client.TokenRequirement(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), requirement)
}
