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

package governance

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/xchain/governor/genesis"
)

type apiHarness struct {
	t      *testing.T
	gc     *GovernanceContract
	clock  *testClock
	client *rpc.Client
	nonces map[common.Address]uint64
}

func newAPIHarness(t *testing.T, owner common.Address) *apiHarness {
	t.Helper()
	db := memorydb.New()
	clock := newTestClock(100)
	gc, err := NewGovernanceContract(db, clock, &genesis.BootstrapConfig{Owner: owner})
	if err != nil {
		t.Fatalf("failed to deploy: %v", err)
	}
	server := rpc.NewServer()
	for _, api := range APIs(gc, NewAuthenticator(db, gc.Address())) {
		if err := server.RegisterName(api.Namespace, api.Service); err != nil {
			t.Fatalf("failed to register api: %v", err)
		}
	}
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return &apiHarness{t: t, gc: gc, clock: clock, client: client, nonces: make(map[common.Address]uint64)}
}

// send signs and submits a mutating call
func (h *apiHarness) send(key *ecdsa.PrivateKey, result interface{}, method string, args interface{}) error {
	h.t.Helper()
	addr := crypto.PubkeyToAddress(key.PublicKey)
	req, err := SignRequest(key, method, h.nonces[addr], args)
	if err != nil {
		h.t.Fatalf("failed to sign %s: %v", method, err)
	}
	h.nonces[addr]++
	if _, ok := args.(*NoArgs); ok {
		return h.client.Call(result, method, req)
	}
	return h.client.Call(result, method, args, req)
}

func errorCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}

func TestAPI_VotingRoundTrip(t *testing.T) {
	ownerKey, _ := crypto.GenerateKey()
	voterKey, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)
	voter := crypto.PubkeyToAddress(voterKey.PublicKey)
	h := newAPIHarness(t, owner)

	if err := h.send(ownerKey, nil, MethodSetVotingPower, &PowerArgs{Voter: voter, Weight: 25}); err != nil {
		t.Fatalf("set power: %v", err)
	}
	var id hexutil.Uint64
	proposal := &ProposalArgs{Title: "Treasury grant", Duration: 10, Options: []string{"fund", "reject"}}
	if err := h.send(voterKey, &id, MethodCreateProposal, proposal); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if id != 1 {
		t.Fatalf("proposal id: got %d, want 1", id)
	}
	h.clock.set(101)
	if err := h.send(voterKey, nil, MethodCastVote, &VoteArgs{ProposalID: id, Option: 1}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	var res Results
	if err := h.client.Call(&res, "gov_results", id); err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.TotalVotes != 25 || res.Tally(1) != 25 || !res.Active {
		t.Errorf("unexpected results: %+v", res)
	}
	var voted bool
	if err := h.client.Call(&voted, "gov_hasVoted", id, voter); err != nil || !voted {
		t.Errorf("hasVoted: %v %v", voted, err)
	}
	var nonce hexutil.Uint64
	if err := h.client.Call(&nonce, "gov_nonce", voter); err != nil || nonce != 2 {
		t.Errorf("nonce: got %d (%v), want 2", nonce, err)
	}
	var count hexutil.Uint64
	if err := h.client.Call(&count, "gov_proposalCount"); err != nil || count != 1 {
		t.Errorf("proposal count: got %d (%v)", count, err)
	}
}

func TestAPI_ErrorCodes(t *testing.T) {
	ownerKey, _ := crypto.GenerateKey()
	strangerKey, _ := crypto.GenerateKey()
	h := newAPIHarness(t, crypto.PubkeyToAddress(ownerKey.PublicKey))

	err := h.send(strangerKey, nil, MethodPause, &NoArgs{})
	if code := errorCode(err); code != int(CodeNotAdmin) {
		t.Errorf("stranger pause: code %d (%v), want %d", code, err, CodeNotAdmin)
	}
	if err := h.send(ownerKey, nil, MethodPause, &NoArgs{}); err != nil {
		t.Fatalf("owner pause: %v", err)
	}
	err = h.send(ownerKey, nil, MethodEmergencyResetProposal, &ProposalIDArgs{ProposalID: 7})
	if code := errorCode(err); code != int(CodeProposalNotFound) {
		t.Errorf("reset missing: code %d (%v), want %d", code, err, CodeProposalNotFound)
	}

	var p Proposal
	err = h.client.Call(&p, "gov_proposal", hexutil.Uint64(7))
	if code := errorCode(err); code != int(CodeProposalNotFound) {
		t.Errorf("read missing: code %d (%v), want %d", code, err, CodeProposalNotFound)
	}
}

func TestAPI_RejectsReplayedRequest(t *testing.T) {
	ownerKey, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)
	h := newAPIHarness(t, owner)

	args := &AccountArgs{Account: alice}
	req, _ := SignRequest(ownerKey, MethodAddAdmin, 0, args)
	if err := h.client.Call(nil, MethodAddAdmin, args, req); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	err := h.client.Call(nil, MethodAddAdmin, args, req)
	if code := errorCode(err); code != int(CodeInvalidNonce) {
		t.Errorf("replay: code %d (%v), want %d", code, err, CodeInvalidNonce)
	}

	// A signature over other arguments authenticates someone else entirely
	forged := *req
	forged.Nonce = 1
	err = h.client.Call(nil, MethodAddAdmin, &AccountArgs{Account: bob}, forged)
	if err == nil {
		t.Fatal("forged request accepted")
	}
	if h.gc.IsAdmin(bob) {
		t.Error("forged request granted admin rights")
	}
}

func TestAPI_EventSubscription(t *testing.T) {
	ownerKey, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)
	h := newAPIHarness(t, owner)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan Event, 4)
	sub, err := h.client.Subscribe(ctx, Namespace, events, "events")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := h.send(ownerKey, nil, MethodBlacklist, &AccountArgs{Account: carol}); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Kind != EventBlacklisted || ev.Actor != owner || ev.Target != carol || ev.Ordinal != 100 {
			t.Errorf("unexpected event: %+v", ev)
		}
	case err := <-sub.Err():
		t.Fatalf("subscription failed: %v", err)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}
