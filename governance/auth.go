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
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// SignedRequest authenticates a mutating remote call. The signature covers
// the method name, the nonce and the RLP encoding of the call arguments.
type SignedRequest struct {
	Nonce     hexutil.Uint64 `json:"nonce"`
	Signature hexutil.Bytes  `json:"signature"`
}

// RequestDigest returns the hash a caller signs to authorize method with the
// given arguments.
func RequestDigest(method string, nonce uint64, payload interface{}) (common.Hash, error) {
	enc, err := rlp.EncodeToBytes([]interface{}{method, nonce, payload})
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode %s request: %w", method, err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// SignRequest signs a call to method with key
func SignRequest(key *ecdsa.PrivateKey, method string, nonce uint64, payload interface{}) (*SignedRequest, error) {
	digest, err := RequestDigest(method, nonce, payload)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	return &SignedRequest{Nonce: hexutil.Uint64(nonce), Signature: sig}, nil
}

// Authenticator resolves the calling identity of remote requests. Each
// identity signs its requests with strictly sequential nonces starting at
// zero, so a captured request cannot be replayed.
type Authenticator struct {
	mu       sync.Mutex
	db       ethdb.KeyValueStore
	contract common.Address
}

// NewAuthenticator creates an authenticator keeping its nonces in the
// namespace of contract.
func NewAuthenticator(db ethdb.KeyValueStore, contract common.Address) *Authenticator {
	return &Authenticator{db: db, contract: contract}
}

// Nonce returns the nonce the next request of addr must carry
func (a *Authenticator) Nonce(addr common.Address) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx := newStateTx(a.db, a.contract)
	return tx.readUint64(tx.nonceKey(addr))
}

// Authenticate recovers the signer of req and consumes its nonce. The nonce
// is consumed even if the authorized call is later rejected.
func (a *Authenticator) Authenticate(method string, payload interface{}, req *SignedRequest) (common.Address, error) {
	if req == nil || len(req.Signature) != crypto.SignatureLength {
		authRejectedMeter.Mark(1)
		return common.Address{}, ErrInvalidSignature
	}
	digest, err := RequestDigest(method, uint64(req.Nonce), payload)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(digest[:], req.Signature)
	if err != nil {
		authRejectedMeter.Mark(1)
		return common.Address{}, ErrInvalidSignature
	}
	signer := crypto.PubkeyToAddress(*pub)

	a.mu.Lock()
	defer a.mu.Unlock()

	tx := newStateTx(a.db, a.contract)
	next, err := tx.readUint64(tx.nonceKey(signer))
	if err != nil {
		return common.Address{}, err
	}
	if uint64(req.Nonce) != next {
		authRejectedMeter.Mark(1)
		log.Debug("Rejected request nonce", "method", method, "signer", signer, "have", uint64(req.Nonce), "want", next)
		return common.Address{}, ErrInvalidNonce
	}
	if err := tx.writeUint64(tx.nonceKey(signer), next+1); err != nil {
		return common.Address{}, err
	}
	if err := tx.commit(); err != nil {
		return common.Address{}, fmt.Errorf("store nonce: %w", err)
	}
	return signer, nil
}
