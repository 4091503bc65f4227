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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

func TestAuthenticator_RecoversSigner(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signer := crypto.PubkeyToAddress(key.PublicKey)
	auth := NewAuthenticator(memorydb.New(), common.HexToAddress("0xc0"))

	args := &VoteArgs{ProposalID: 1, Option: 2}
	req, err := SignRequest(key, MethodCastVote, 0, args)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	caller, err := auth.Authenticate(MethodCastVote, args, req)
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if caller != signer {
		t.Errorf("caller mismatch: got %s, want %s", caller.Hex(), signer.Hex())
	}
	if nonce, _ := auth.Nonce(signer); nonce != 1 {
		t.Errorf("nonce after use: got %d, want 1", nonce)
	}
}

func TestAuthenticator_RejectsReplay(t *testing.T) {
	key, _ := crypto.GenerateKey()
	auth := NewAuthenticator(memorydb.New(), common.HexToAddress("0xc0"))

	args := &AccountArgs{Account: alice}
	req, _ := SignRequest(key, MethodBlacklist, 0, args)
	if _, err := auth.Authenticate(MethodBlacklist, args, req); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if _, err := auth.Authenticate(MethodBlacklist, args, req); err != ErrInvalidNonce {
		t.Errorf("replay: got %v, want %v", err, ErrInvalidNonce)
	}
	skipped, _ := SignRequest(key, MethodBlacklist, 5, args)
	if _, err := auth.Authenticate(MethodBlacklist, args, skipped); err != ErrInvalidNonce {
		t.Errorf("skipped nonce: got %v, want %v", err, ErrInvalidNonce)
	}
}

func TestAuthenticator_BindsMethodAndPayload(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signer := crypto.PubkeyToAddress(key.PublicKey)
	auth := NewAuthenticator(memorydb.New(), common.HexToAddress("0xc0"))

	args := &VoteArgs{ProposalID: 1, Option: 2}
	req, _ := SignRequest(key, MethodCastVote, 0, args)

	// Another method or payload recovers a different identity, whose nonce
	// does not match, or no identity at all.
	if caller, err := auth.Authenticate(MethodChangeVote, args, req); err == nil && caller == signer {
		t.Error("signature accepted for another method")
	}
	if caller, err := auth.Authenticate(MethodCastVote, &VoteArgs{ProposalID: 1, Option: 3}, req); err == nil && caller == signer {
		t.Error("signature accepted for another payload")
	}
}

func TestAuthenticator_MalformedSignature(t *testing.T) {
	auth := NewAuthenticator(memorydb.New(), common.HexToAddress("0xc0"))

	if _, err := auth.Authenticate(MethodPause, &NoArgs{}, nil); err != ErrInvalidSignature {
		t.Errorf("missing request: got %v, want %v", err, ErrInvalidSignature)
	}
	req := &SignedRequest{Signature: make([]byte, 10)}
	if _, err := auth.Authenticate(MethodPause, &NoArgs{}, req); err != ErrInvalidSignature {
		t.Errorf("short signature: got %v, want %v", err, ErrInvalidSignature)
	}
	req = &SignedRequest{Signature: make([]byte, crypto.SignatureLength)}
	req.Signature[64] = 7
	if _, err := auth.Authenticate(MethodPause, &NoArgs{}, req); err != ErrInvalidSignature {
		t.Errorf("bad recovery id: got %v, want %v", err, ErrInvalidSignature)
	}
}

func TestErrorByCode(t *testing.T) {
	for _, want := range []*Error{ErrNotAdmin, ErrRosterFull, ErrInvalidNonce, ErrTallyOverflow} {
		got, ok := ErrorByCode(want.ErrorCode())
		if !ok || got != want {
			t.Errorf("code %d: got %v", want.ErrorCode(), got)
		}
	}
	if _, ok := ErrorByCode(-32000); ok {
		t.Error("generic rpc code mapped to a governance error")
	}
}
