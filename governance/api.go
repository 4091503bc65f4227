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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Namespace is the JSON-RPC namespace of the governance API
const Namespace = "gov"

// Names of the signed methods, as covered by request signatures
const (
	MethodAddAdmin               = "gov_addAdmin"
	MethodRemoveAdmin            = "gov_removeAdmin"
	MethodBlacklist              = "gov_blacklist"
	MethodUnblacklist            = "gov_unblacklist"
	MethodPause                  = "gov_pause"
	MethodUnpause                = "gov_unpause"
	MethodSetTokenRequirement    = "gov_setTokenRequirement"
	MethodSetVotingPower         = "gov_setVotingPower"
	MethodBatchSetVotingPower    = "gov_batchSetVotingPower"
	MethodCreateProposal         = "gov_createProposal"
	MethodDeactivateProposal     = "gov_deactivateProposal"
	MethodCastVote               = "gov_castVote"
	MethodChangeVote             = "gov_changeVote"
	MethodEmergencyResetProposal = "gov_emergencyResetProposal"
)

// AccountArgs names the account an admin call acts on
type AccountArgs struct {
	Account common.Address `json:"account"`
}

// AmountArgs carries a token requirement
type AmountArgs struct {
	Amount hexutil.Uint64 `json:"amount"`
}

// PowerArgs assigns a voting power to one account
type PowerArgs struct {
	Voter  common.Address `json:"voter"`
	Weight hexutil.Uint64 `json:"weight"`
}

// BatchPowerArgs assigns Weights[i] to Voters[i]
type BatchPowerArgs struct {
	Voters  []common.Address `json:"voters"`
	Weights []hexutil.Uint64 `json:"weights"`
}

// ProposalArgs describes a proposal to create
type ProposalArgs struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Duration         hexutil.Uint64 `json:"duration"`
	Options          []string       `json:"options"`
	MinParticipation hexutil.Uint64 `json:"minParticipation"`
}

// ProposalIDArgs names the proposal a call acts on
type ProposalIDArgs struct {
	ProposalID hexutil.Uint64 `json:"proposalId"`
}

// VoteArgs selects an option on a proposal
type VoteArgs struct {
	ProposalID hexutil.Uint64 `json:"proposalId"`
	Option     hexutil.Uint64 `json:"option"`
}

// NoArgs is the payload of calls without arguments
type NoArgs struct{}

// API exposes a governance contract over JSON-RPC. Reads are open; every
// mutating method takes a SignedRequest whose signer becomes the caller.
type API struct {
	backend Backend
	auth    *Authenticator
}

// NewAPI creates the governance RPC service
func NewAPI(backend Backend, auth *Authenticator) *API {
	return &API{backend: backend, auth: auth}
}

// APIs returns the RPC descriptors of the governance service
func APIs(backend Backend, auth *Authenticator) []rpc.API {
	return []rpc.API{{
		Namespace: Namespace,
		Service:   NewAPI(backend, auth),
	}}
}

// Address returns the contract address
func (api *API) Address() common.Address {
	return api.backend.Address()
}

// Owner returns the deploying identity
func (api *API) Owner() common.Address {
	return api.backend.Owner()
}

// Nonce returns the nonce the next signed request of addr must carry
func (api *API) Nonce(addr common.Address) (hexutil.Uint64, error) {
	nonce, err := api.auth.Nonce(addr)
	return hexutil.Uint64(nonce), err
}

func (api *API) IsAdmin(addr common.Address) bool {
	return api.backend.IsAdmin(addr)
}

func (api *API) IsBlacklisted(addr common.Address) bool {
	return api.backend.IsBlacklisted(addr)
}

func (api *API) Paused() bool {
	return api.backend.Paused()
}

func (api *API) TokenRequirement() hexutil.Uint64 {
	return hexutil.Uint64(api.backend.TokenRequirement())
}

func (api *API) VotingPower(addr common.Address) hexutil.Uint64 {
	return hexutil.Uint64(api.backend.VotingPower(addr))
}

func (api *API) Proposal(id hexutil.Uint64) (*Proposal, error) {
	return api.backend.Proposal(uint64(id))
}

// Proposals pages through proposals in id order
func (api *API) Proposals(from hexutil.Uint64, limit hexutil.Uint64) ([]*Proposal, error) {
	return api.backend.Proposals(uint64(from), uint64(limit))
}

func (api *API) ProposalCount() hexutil.Uint64 {
	return hexutil.Uint64(api.backend.ProposalCount())
}

func (api *API) IsActive(id hexutil.Uint64) bool {
	return api.backend.IsActive(uint64(id))
}

func (api *API) Results(id hexutil.Uint64) (*Results, error) {
	return api.backend.Results(uint64(id))
}

func (api *API) Vote(id hexutil.Uint64, voter common.Address) (*VoteRecord, error) {
	return api.backend.Vote(uint64(id), voter)
}

func (api *API) HasVoted(id hexutil.Uint64, voter common.Address) bool {
	return api.backend.HasVoted(uint64(id), voter)
}

func (api *API) Roster(id hexutil.Uint64) ([]common.Address, error) {
	return api.backend.Roster(uint64(id))
}

func (api *API) AddAdmin(args AccountArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodAddAdmin, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.AddAdmin(caller, args.Account)
}

func (api *API) RemoveAdmin(args AccountArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodRemoveAdmin, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.RemoveAdmin(caller, args.Account)
}

func (api *API) Blacklist(args AccountArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodBlacklist, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.Blacklist(caller, args.Account)
}

func (api *API) Unblacklist(args AccountArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodUnblacklist, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.Unblacklist(caller, args.Account)
}

func (api *API) Pause(req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodPause, &NoArgs{}, &req)
	if err != nil {
		return err
	}
	return api.backend.Pause(caller)
}

func (api *API) Unpause(req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodUnpause, &NoArgs{}, &req)
	if err != nil {
		return err
	}
	return api.backend.Unpause(caller)
}

func (api *API) SetTokenRequirement(args AmountArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodSetTokenRequirement, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.SetTokenRequirement(caller, uint64(args.Amount))
}

func (api *API) SetVotingPower(args PowerArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodSetVotingPower, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.SetVotingPower(caller, args.Voter, uint64(args.Weight))
}

func (api *API) BatchSetVotingPower(args BatchPowerArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodBatchSetVotingPower, &args, &req)
	if err != nil {
		return err
	}
	weights := make([]uint64, len(args.Weights))
	for i, w := range args.Weights {
		weights[i] = uint64(w)
	}
	return api.backend.BatchSetVotingPower(caller, args.Voters, weights)
}

// CreateProposal creates a proposal and returns its id
func (api *API) CreateProposal(args ProposalArgs, req SignedRequest) (hexutil.Uint64, error) {
	caller, err := api.auth.Authenticate(MethodCreateProposal, &args, &req)
	if err != nil {
		return 0, err
	}
	id, err := api.backend.CreateProposal(caller, &ProposalDraft{
		Title:            args.Title,
		Description:      args.Description,
		Duration:         uint64(args.Duration),
		Options:          args.Options,
		MinParticipation: uint64(args.MinParticipation),
	})
	return hexutil.Uint64(id), err
}

func (api *API) DeactivateProposal(args ProposalIDArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodDeactivateProposal, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.DeactivateProposal(caller, uint64(args.ProposalID))
}

func (api *API) CastVote(args VoteArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodCastVote, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.CastVote(caller, uint64(args.ProposalID), uint64(args.Option))
}

func (api *API) ChangeVote(args VoteArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodChangeVote, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.ChangeVote(caller, uint64(args.ProposalID), uint64(args.Option))
}

func (api *API) EmergencyResetProposal(args ProposalIDArgs, req SignedRequest) error {
	caller, err := api.auth.Authenticate(MethodEmergencyResetProposal, &args, &req)
	if err != nil {
		return err
	}
	return api.backend.EmergencyResetProposal(caller, uint64(args.ProposalID))
}

// Events streams the audit events of committed calls to the subscriber
func (api *API) Events(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}
	rpcSub := notifier.CreateSubscription()

	events := make(chan Event, 128)
	sub := api.backend.SubscribeEvents(events)
	go func() {
		defer sub.Unsubscribe()

		for {
			select {
			case ev := <-events:
				notifier.Notify(rpcSub.ID, ev)
			case <-rpcSub.Err():
				return
			case <-sub.Err():
				return
			}
		}
	}()
	return rpcSub, nil
}
