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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Clock supplies the ledger ordinal (block height) that gates proposal
// windows. It must never go backwards. The contract reads it once per call.
type Clock interface {
	CurrentOrdinal() uint64
}

// Backend is the operation surface of a governance contract. Every mutating
// method takes the calling identity explicitly.
type Backend interface {
	// Address returns the contract address that scopes the stored state
	Address() common.Address

	// Owner returns the deploying identity
	Owner() common.Address

	// AddAdmin grants admin rights to target
	AddAdmin(caller, target common.Address) error

	// RemoveAdmin revokes admin rights from target. The owner cannot be removed.
	RemoveAdmin(caller, target common.Address) error

	// Blacklist bars target from creating proposals and voting
	Blacklist(caller, target common.Address) error

	// Unblacklist lifts a blacklisting
	Unblacklist(caller, target common.Address) error

	// IsAdmin checks if an address is an admin
	IsAdmin(addr common.Address) bool

	// IsBlacklisted checks if an address is blacklisted
	IsBlacklisted(addr common.Address) bool

	// Pause stops all voting and proposal creation
	Pause(caller common.Address) error

	// Unpause resumes voting
	Unpause(caller common.Address) error

	// Paused reports the global pause flag
	Paused() bool

	// SetTokenRequirement sets the minimum stored power needed to cast a vote
	SetTokenRequirement(caller common.Address, amount uint64) error

	// TokenRequirement returns the current token requirement
	TokenRequirement() uint64

	// SetVotingPower assigns a voting power
	SetVotingPower(caller, voter common.Address, weight uint64) error

	// BatchSetVotingPower assigns weights[i] to voters[i]
	BatchSetVotingPower(caller common.Address, voters []common.Address, weights []uint64) error

	// VotingPower returns the stored voting power, zero if never set
	VotingPower(addr common.Address) uint64

	// CreateProposal creates a new proposal and returns its id
	CreateProposal(caller common.Address, draft *ProposalDraft) (uint64, error)

	// DeactivateProposal closes a proposal early
	DeactivateProposal(caller common.Address, id uint64) error

	// CastVote records a first vote
	CastVote(caller common.Address, id uint64, option uint64) error

	// ChangeVote moves an existing vote to another option
	ChangeVote(caller common.Address, id uint64, option uint64) error

	// EmergencyResetProposal wipes the tally of a proposal while paused
	EmergencyResetProposal(caller common.Address, id uint64) error

	// Proposal returns a proposal
	Proposal(id uint64) (*Proposal, error)

	// Proposals returns up to limit proposals starting at id from
	Proposals(from uint64, limit uint64) ([]*Proposal, error)

	// ProposalCount returns the number of proposals ever created
	ProposalCount() uint64

	// IsActive checks if a proposal accepts votes at the current ordinal
	IsActive(id uint64) bool

	// Results returns the tally of a proposal
	Results(id uint64) (*Results, error)

	// Vote returns the current vote of voter on a proposal
	Vote(id uint64, voter common.Address) (*VoteRecord, error)

	// HasVoted checks if voter has a live vote on a proposal
	HasVoted(id uint64, voter common.Address) bool

	// Roster returns the voters of a proposal in first-vote order
	Roster(id uint64) ([]common.Address, error)

	// SubscribeEvents subscribes to the audit event stream
	SubscribeEvents(ch chan<- Event) event.Subscription
}
