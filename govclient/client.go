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

// Package govclient provides a client for the governance JSON-RPC API.
package govclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/xchain/governor/governance"
)

// Client reads governance state and, when created with a key, submits
// signed calls on behalf of that key.
type Client struct {
	c   *rpc.Client
	key *ecdsa.PrivateKey

	mu    sync.Mutex
	nonce *uint64
}

// Dial connects a read-only client to the given URL
func Dial(rawurl string) (*Client, error) {
	return DialContext(context.Background(), rawurl)
}

// DialContext connects a read-only client to the given URL
func DialContext(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// DialWithJWT connects to an endpoint guarded by a JWT secret
func DialWithJWT(ctx context.Context, rawurl string, secret [32]byte) (*Client, error) {
	c, err := rpc.DialOptions(ctx, rawurl, rpc.WithHTTPAuth(node.NewJWTAuth(secret)))
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient creates a client that uses the given RPC client
func NewClient(c *rpc.Client) *Client {
	return &Client{c: c}
}

// WithKey returns a client that signs calls with key. The returned client
// shares the connection with the original.
func (gc *Client) WithKey(key *ecdsa.PrivateKey) *Client {
	return &Client{c: gc.c, key: key}
}

// Close closes the underlying RPC connection
func (gc *Client) Close() {
	gc.c.Close()
}

// Client gets the underlying RPC client
func (gc *Client) Client() *rpc.Client {
	return gc.c
}

// Account returns the signing identity, zero for read-only clients
func (gc *Client) Account() common.Address {
	if gc.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(gc.key.PublicKey)
}

var errNoKey = errors.New("client has no signing key")

// send signs and submits a mutating call. The cached nonce is dropped after
// an authentication failure so the next call refetches it.
func (gc *Client) send(ctx context.Context, result interface{}, method string, args interface{}) error {
	if gc.key == nil {
		return errNoKey
	}
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if gc.nonce == nil {
		nonce, err := gc.Nonce(ctx, gc.Account())
		if err != nil {
			return err
		}
		gc.nonce = &nonce
	}
	req, err := governance.SignRequest(gc.key, method, *gc.nonce, args)
	if err != nil {
		return err
	}
	if _, ok := args.(*governance.NoArgs); ok {
		err = gc.c.CallContext(ctx, result, method, req)
	} else {
		err = gc.c.CallContext(ctx, result, method, args, req)
	}
	err = toGovernanceError(err)
	switch {
	case err == nil, isAppError(err) && err != governance.ErrInvalidSignature && err != governance.ErrInvalidNonce:
		// The request was authenticated, the nonce is consumed
		*gc.nonce++
	default:
		gc.nonce = nil
	}
	return err
}

// isAppError reports whether err is a governance failure code
func isAppError(err error) bool {
	var gerr *governance.Error
	return errors.As(err, &gerr)
}

// toGovernanceError maps RPC errors carrying a governance code back to the
// governance sentinel errors.
func toGovernanceError(err error) error {
	var rpcErr rpc.Error
	if err == nil || !errors.As(err, &rpcErr) {
		return err
	}
	if gerr, ok := governance.ErrorByCode(rpcErr.ErrorCode()); ok {
		return gerr
	}
	return err
}

func (gc *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return toGovernanceError(gc.c.CallContext(ctx, result, method, args...))
}

// Nonce returns the nonce the next signed call of addr must carry
func (gc *Client) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	err := gc.call(ctx, &nonce, "gov_nonce", addr)
	return uint64(nonce), err
}

func (gc *Client) Address(ctx context.Context) (common.Address, error) {
	var addr common.Address
	err := gc.call(ctx, &addr, "gov_address")
	return addr, err
}

func (gc *Client) Owner(ctx context.Context) (common.Address, error) {
	var addr common.Address
	err := gc.call(ctx, &addr, "gov_owner")
	return addr, err
}

func (gc *Client) IsAdmin(ctx context.Context, addr common.Address) (bool, error) {
	var ok bool
	err := gc.call(ctx, &ok, "gov_isAdmin", addr)
	return ok, err
}

func (gc *Client) IsBlacklisted(ctx context.Context, addr common.Address) (bool, error) {
	var ok bool
	err := gc.call(ctx, &ok, "gov_isBlacklisted", addr)
	return ok, err
}

func (gc *Client) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := gc.call(ctx, &paused, "gov_paused")
	return paused, err
}

func (gc *Client) TokenRequirement(ctx context.Context) (uint64, error) {
	var amount hexutil.Uint64
	err := gc.call(ctx, &amount, "gov_tokenRequirement")
	return uint64(amount), err
}

func (gc *Client) VotingPower(ctx context.Context, addr common.Address) (uint64, error) {
	var power hexutil.Uint64
	err := gc.call(ctx, &power, "gov_votingPower", addr)
	return uint64(power), err
}

func (gc *Client) Proposal(ctx context.Context, id uint64) (*governance.Proposal, error) {
	var p *governance.Proposal
	err := gc.call(ctx, &p, "gov_proposal", hexutil.Uint64(id))
	return p, err
}

// Proposals lists up to limit proposals starting at id from
func (gc *Client) Proposals(ctx context.Context, from, limit uint64) ([]*governance.Proposal, error) {
	var ps []*governance.Proposal
	err := gc.call(ctx, &ps, "gov_proposals", hexutil.Uint64(from), hexutil.Uint64(limit))
	return ps, err
}

func (gc *Client) ProposalCount(ctx context.Context) (uint64, error) {
	var count hexutil.Uint64
	err := gc.call(ctx, &count, "gov_proposalCount")
	return uint64(count), err
}

func (gc *Client) IsActive(ctx context.Context, id uint64) (bool, error) {
	var active bool
	err := gc.call(ctx, &active, "gov_isActive", hexutil.Uint64(id))
	return active, err
}

func (gc *Client) Results(ctx context.Context, id uint64) (*governance.Results, error) {
	var res *governance.Results
	err := gc.call(ctx, &res, "gov_results", hexutil.Uint64(id))
	return res, err
}

func (gc *Client) Vote(ctx context.Context, id uint64, voter common.Address) (*governance.VoteRecord, error) {
	var rec *governance.VoteRecord
	err := gc.call(ctx, &rec, "gov_vote", hexutil.Uint64(id), voter)
	return rec, err
}

func (gc *Client) HasVoted(ctx context.Context, id uint64, voter common.Address) (bool, error) {
	var voted bool
	err := gc.call(ctx, &voted, "gov_hasVoted", hexutil.Uint64(id), voter)
	return voted, err
}

func (gc *Client) Roster(ctx context.Context, id uint64) ([]common.Address, error) {
	var voters []common.Address
	err := gc.call(ctx, &voters, "gov_roster", hexutil.Uint64(id))
	return voters, err
}

func (gc *Client) AddAdmin(ctx context.Context, target common.Address) error {
	return gc.send(ctx, nil, governance.MethodAddAdmin, &governance.AccountArgs{Account: target})
}

func (gc *Client) RemoveAdmin(ctx context.Context, target common.Address) error {
	return gc.send(ctx, nil, governance.MethodRemoveAdmin, &governance.AccountArgs{Account: target})
}

func (gc *Client) Blacklist(ctx context.Context, target common.Address) error {
	return gc.send(ctx, nil, governance.MethodBlacklist, &governance.AccountArgs{Account: target})
}

func (gc *Client) Unblacklist(ctx context.Context, target common.Address) error {
	return gc.send(ctx, nil, governance.MethodUnblacklist, &governance.AccountArgs{Account: target})
}

func (gc *Client) Pause(ctx context.Context) error {
	return gc.send(ctx, nil, governance.MethodPause, &governance.NoArgs{})
}

func (gc *Client) Unpause(ctx context.Context) error {
	return gc.send(ctx, nil, governance.MethodUnpause, &governance.NoArgs{})
}

func (gc *Client) SetTokenRequirement(ctx context.Context, amount uint64) error {
	return gc.send(ctx, nil, governance.MethodSetTokenRequirement, &governance.AmountArgs{Amount: hexutil.Uint64(amount)})
}

func (gc *Client) SetVotingPower(ctx context.Context, voter common.Address, weight uint64) error {
	return gc.send(ctx, nil, governance.MethodSetVotingPower, &governance.PowerArgs{Voter: voter, Weight: hexutil.Uint64(weight)})
}

func (gc *Client) BatchSetVotingPower(ctx context.Context, voters []common.Address, weights []uint64) error {
	args := &governance.BatchPowerArgs{Voters: voters, Weights: make([]hexutil.Uint64, len(weights))}
	for i, w := range weights {
		args.Weights[i] = hexutil.Uint64(w)
	}
	return gc.send(ctx, nil, governance.MethodBatchSetVotingPower, args)
}

// CreateProposal creates a proposal and returns its id
func (gc *Client) CreateProposal(ctx context.Context, draft *governance.ProposalDraft) (uint64, error) {
	args := &governance.ProposalArgs{
		Title:            draft.Title,
		Description:      draft.Description,
		Duration:         hexutil.Uint64(draft.Duration),
		Options:          draft.Options,
		MinParticipation: hexutil.Uint64(draft.MinParticipation),
	}
	var id hexutil.Uint64
	err := gc.send(ctx, &id, governance.MethodCreateProposal, args)
	return uint64(id), err
}

func (gc *Client) DeactivateProposal(ctx context.Context, id uint64) error {
	return gc.send(ctx, nil, governance.MethodDeactivateProposal, &governance.ProposalIDArgs{ProposalID: hexutil.Uint64(id)})
}

func (gc *Client) CastVote(ctx context.Context, id, option uint64) error {
	return gc.send(ctx, nil, governance.MethodCastVote, &governance.VoteArgs{ProposalID: hexutil.Uint64(id), Option: hexutil.Uint64(option)})
}

func (gc *Client) ChangeVote(ctx context.Context, id, option uint64) error {
	return gc.send(ctx, nil, governance.MethodChangeVote, &governance.VoteArgs{ProposalID: hexutil.Uint64(id), Option: hexutil.Uint64(option)})
}

func (gc *Client) EmergencyResetProposal(ctx context.Context, id uint64) error {
	return gc.send(ctx, nil, governance.MethodEmergencyResetProposal, &governance.ProposalIDArgs{ProposalID: hexutil.Uint64(id)})
}

// SubscribeEvents subscribes to the audit events of committed calls. It
// needs a WebSocket or in-process connection.
func (gc *Client) SubscribeEvents(ctx context.Context, ch chan<- governance.Event) (*rpc.ClientSubscription, error) {
	return gc.c.Subscribe(ctx, governance.Namespace, ch, "events")
}
