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
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/xchain/governor/genesis"
)

// GovernanceContract is the public operation surface of the governance
// module. It sequences every call into the access registry, the voting power
// ledger, the proposal store and the vote ledger.
//
// Calls are serialized on a single lock and each call runs in its own state
// transaction: either every effect of the call is committed in one database
// batch, or the call fails and nothing is written.
type GovernanceContract struct {
	mu      sync.RWMutex
	sendMu  sync.Mutex // orders event delivery across calls
	db      ethdb.KeyValueStore
	clock   Clock
	address common.Address
	owner   common.Address
	feed    event.Feed
	logger  log.Logger
}

// callContext carries the per-call state shared by the components
type callContext struct {
	caller common.Address
	now    uint64

	tx        *stateTx
	access    *accessRegistry
	powers    *powerLedger
	proposals *proposalStore
	votes     *voteLedger

	events []Event
}

func newCallContext(db ethdb.KeyValueStore, contract common.Address, caller common.Address, now uint64) *callContext {
	tx := newStateTx(db, contract)
	return &callContext{
		caller:    caller,
		now:       now,
		tx:        tx,
		access:    &accessRegistry{tx: tx},
		powers:    &powerLedger{tx: tx},
		proposals: &proposalStore{tx: tx},
		votes:     &voteLedger{tx: tx},
	}
}

// emit queues an audit event. Queued events are published after commit.
func (c *callContext) emit(kind EventKind, target common.Address, proposalID uint64, detail string) {
	c.events = append(c.events, Event{
		Kind:       kind,
		Detail:     detail,
		Ordinal:    c.now,
		Actor:      c.caller,
		Target:     target,
		ProposalID: proposalID,
	})
}

// IsDeployed reports whether db holds a governance contract at address
func IsDeployed(db ethdb.KeyValueStore, address common.Address) (bool, error) {
	return newCallContext(db, address, common.Address{}, 0).access.deployed()
}

// NewGovernanceContract opens the governance contract deployed by
// config.Owner in db. If the contract namespace is empty, the bootstrap
// configuration is applied first.
func NewGovernanceContract(db ethdb.KeyValueStore, clock Clock, config *genesis.BootstrapConfig) (*GovernanceContract, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	gc := &GovernanceContract{
		db:      db,
		clock:   clock,
		address: config.ContractAddress(),
		owner:   config.Owner,
	}
	gc.logger = log.New("contract", gc.address)

	c := newCallContext(db, gc.address, config.Owner, clock.CurrentOrdinal())
	deployed, err := c.access.deployed()
	if err != nil {
		return nil, err
	}
	if deployed {
		meta, err := c.access.meta()
		if err != nil {
			return nil, err
		}
		gc.logger.Info("Loaded governance contract", "owner", meta.Owner, "proposals", meta.NextProposalID-1, "paused", meta.Paused)
		return gc, nil
	}
	if err := gc.deploy(c, config); err != nil {
		return nil, err
	}
	if err := c.tx.commit(); err != nil {
		return nil, fmt.Errorf("deploy governance contract: %w", err)
	}
	for _, ev := range c.events {
		gc.feed.Send(ev)
	}
	gc.logger.Info("Deployed governance contract", "owner", config.Owner, "admins", len(config.Admins), "allocations", len(config.VotingPowers))
	return gc, nil
}

func (gc *GovernanceContract) deploy(c *callContext, config *genesis.BootstrapConfig) error {
	meta := &governanceMeta{
		Owner:            config.Owner,
		NextProposalID:   1,
		TokenRequirement: config.TokenRequirement,
	}
	if err := c.access.putMeta(meta); err != nil {
		return err
	}
	if err := c.access.setAdmin(config.Owner, true); err != nil {
		return err
	}
	for _, admin := range config.Admins {
		if err := c.access.setAdmin(admin, true); err != nil {
			return err
		}
	}
	for _, alloc := range config.VotingPowers {
		if err := c.powers.setPower(alloc.Account, alloc.Weight); err != nil {
			return err
		}
	}
	c.emit(EventContractDeployed, gc.address, 0, fmt.Sprintf("deployed by %s", config.Owner.Hex()))
	return nil
}

// execute runs fn as one serialized call by caller. The clock is read once
// and shared by every check of the call. Writes are committed only if fn
// succeeds; events are published only after the commit.
func (gc *GovernanceContract) execute(op string, caller common.Address, fn func(c *callContext) error) error {
	defer callTimer.UpdateSince(time.Now())

	gc.mu.Lock()
	c := newCallContext(gc.db, gc.address, caller, gc.clock.CurrentOrdinal())
	if err := fn(c); err != nil {
		gc.mu.Unlock()
		rejectedCallMeter.Mark(1)
		gc.logger.Debug("Rejected governance call", "op", op, "caller", caller, "ordinal", c.now, "err", err)
		return err
	}
	if err := c.tx.commit(); err != nil {
		gc.mu.Unlock()
		failedCommitMeter.Mark(1)
		gc.logger.Error("Failed to commit governance call", "op", op, "caller", caller, "err", err)
		return fmt.Errorf("%s: commit state: %w", op, err)
	}
	// Take the send lock before releasing the state lock so events leave in
	// commit order, while slow subscribers only hold up later publishers.
	gc.sendMu.Lock()
	gc.mu.Unlock()
	defer gc.sendMu.Unlock()

	committedCallMeter.Mark(1)
	gc.logger.Debug("Committed governance call", "op", op, "caller", caller, "ordinal", c.now)

	// Send blocks until every subscriber has taken the event
	for _, ev := range c.events {
		gc.feed.Send(ev)
	}
	return nil
}

// view runs fn against the committed state under the shared lock
func (gc *GovernanceContract) view(fn func(c *callContext) error) error {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	return fn(newCallContext(gc.db, gc.address, common.Address{}, gc.clock.CurrentOrdinal()))
}

// Address returns the contract address that scopes the stored state
func (gc *GovernanceContract) Address() common.Address {
	return gc.address
}

// Owner returns the deploying identity
func (gc *GovernanceContract) Owner() common.Address {
	return gc.owner
}

// SubscribeEvents subscribes ch to the audit events of committed calls
func (gc *GovernanceContract) SubscribeEvents(ch chan<- Event) event.Subscription {
	return gc.feed.Subscribe(ch)
}

// AddAdmin grants admin rights to target
func (gc *GovernanceContract) AddAdmin(caller, target common.Address) error {
	return gc.execute("add-admin", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setAdmin(target, true); err != nil {
			return err
		}
		c.emit(EventAdminAdded, target, 0, fmt.Sprintf("admin %s added", target.Hex()))
		return nil
	})
}

// RemoveAdmin revokes admin rights from target
func (gc *GovernanceContract) RemoveAdmin(caller, target common.Address) error {
	return gc.execute("remove-admin", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.removeAdmin(target); err != nil {
			return err
		}
		c.emit(EventAdminRemoved, target, 0, fmt.Sprintf("admin %s removed", target.Hex()))
		return nil
	})
}

// Blacklist bars target from creating proposals and voting
func (gc *GovernanceContract) Blacklist(caller, target common.Address) error {
	return gc.execute("blacklist", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setBlacklisted(target, true); err != nil {
			return err
		}
		c.emit(EventBlacklisted, target, 0, fmt.Sprintf("%s blacklisted", target.Hex()))
		return nil
	})
}

// Unblacklist lifts a blacklisting
func (gc *GovernanceContract) Unblacklist(caller, target common.Address) error {
	return gc.execute("unblacklist", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setBlacklisted(target, false); err != nil {
			return err
		}
		c.emit(EventUnblacklisted, target, 0, fmt.Sprintf("%s unblacklisted", target.Hex()))
		return nil
	})
}

// IsAdmin checks if an address is an admin
func (gc *GovernanceContract) IsAdmin(addr common.Address) bool {
	var admin bool
	gc.read("is-admin", func(c *callContext) (err error) {
		admin, err = c.access.isAdmin(addr)
		return err
	})
	return admin
}

// IsBlacklisted checks if an address is blacklisted
func (gc *GovernanceContract) IsBlacklisted(addr common.Address) bool {
	var blacklisted bool
	gc.read("is-blacklisted", func(c *callContext) (err error) {
		blacklisted, err = c.access.isBlacklisted(addr)
		return err
	})
	return blacklisted
}

// Pause stops all voting and proposal creation
func (gc *GovernanceContract) Pause(caller common.Address) error {
	return gc.execute("pause", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setPaused(true); err != nil {
			return err
		}
		c.emit(EventVotingPaused, common.Address{}, 0, "voting paused")
		return nil
	})
}

// Unpause resumes voting
func (gc *GovernanceContract) Unpause(caller common.Address) error {
	return gc.execute("unpause", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setPaused(false); err != nil {
			return err
		}
		c.emit(EventVotingUnpaused, common.Address{}, 0, "voting resumed")
		return nil
	})
}

// Paused reports the global pause flag
func (gc *GovernanceContract) Paused() bool {
	var paused bool
	gc.read("paused", func(c *callContext) error {
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		paused = meta.Paused
		return nil
	})
	return paused
}

// SetTokenRequirement sets the minimum stored power needed to cast a vote
func (gc *GovernanceContract) SetTokenRequirement(caller common.Address, amount uint64) error {
	return gc.execute("set-token-requirement", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.access.setTokenRequirement(amount); err != nil {
			return err
		}
		c.emit(EventTokenRequirement, common.Address{}, 0, fmt.Sprintf("token requirement set to %d", amount))
		return nil
	})
}

// TokenRequirement returns the current token requirement
func (gc *GovernanceContract) TokenRequirement() uint64 {
	var amount uint64
	gc.read("token-requirement", func(c *callContext) error {
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		amount = meta.TokenRequirement
		return nil
	})
	return amount
}

// SetVotingPower assigns a voting power
func (gc *GovernanceContract) SetVotingPower(caller, voter common.Address, weight uint64) error {
	return gc.execute("set-voting-power", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.powers.setPower(voter, weight); err != nil {
			return err
		}
		c.emit(EventVotingPowerSet, voter, 0, fmt.Sprintf("voting power of %s set to %d", voter.Hex(), weight))
		return nil
	})
}

// BatchSetVotingPower assigns weights[i] to voters[i]. Mismatched lengths and
// oversized batches fail before any power is assigned.
func (gc *GovernanceContract) BatchSetVotingPower(caller common.Address, voters []common.Address, weights []uint64) error {
	return gc.execute("batch-set-voting-power", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		if err := c.powers.batchSetPower(voters, weights); err != nil {
			return err
		}
		c.emit(EventVotingPowerBatchSet, common.Address{}, 0, fmt.Sprintf("voting power set for %d accounts", len(voters)))
		return nil
	})
}

// VotingPower returns the stored voting power, zero if never set
func (gc *GovernanceContract) VotingPower(addr common.Address) uint64 {
	var power uint64
	gc.read("voting-power", func(c *callContext) (err error) {
		power, err = c.powers.power(addr)
		return err
	})
	return power
}

// CreateProposal creates a new proposal open for votes in the ordinal window
// [now+1, now+duration] and returns its id.
func (gc *GovernanceContract) CreateProposal(caller common.Address, draft *ProposalDraft) (uint64, error) {
	var id uint64
	err := gc.execute("create-proposal", caller, func(c *callContext) error {
		if draft.Duration == 0 {
			return ErrInvalidDuration
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		if meta.Paused {
			return ErrVotingPaused
		}
		if err := c.access.requireNotBlacklisted(caller); err != nil {
			return err
		}
		if len(draft.Options) > MaxOptions {
			return ErrTooManyOptions
		}
		proposal, err := c.proposals.create(meta, caller, draft, c.now)
		if err != nil {
			return err
		}
		if err := c.access.putMeta(meta); err != nil {
			return err
		}
		id = proposal.ID
		c.emit(EventProposalCreated, caller, id, fmt.Sprintf("proposal %d %q open for ordinals %d-%d", id, proposal.Title, proposal.StartOrdinal, proposal.EndOrdinal))
		return nil
	})
	if err != nil {
		return 0, err
	}
	proposalCreatedCounter.Inc(1)
	return id, nil
}

// DeactivateProposal closes a proposal early. Only the creator or an admin may
// do so. Votes and tallies are kept.
func (gc *GovernanceContract) DeactivateProposal(caller common.Address, id uint64) error {
	return gc.execute("deactivate-proposal", caller, func(c *callContext) error {
		proposal, err := c.proposals.get(id)
		if err != nil {
			return err
		}
		if proposal.Creator != caller {
			admin, err := c.access.isAdmin(caller)
			if err != nil {
				return err
			}
			if !admin {
				return ErrNotCreatorOrAdmin
			}
		}
		proposal.Active = false
		if err := c.proposals.put(proposal); err != nil {
			return err
		}
		c.emit(EventProposalDeactivated, proposal.Creator, id, fmt.Sprintf("proposal %d deactivated", id))
		return nil
	})
}

// CastVote records the first vote of caller on a proposal. The vote counts
// the caller's effective power, which is frozen for the rest of the proposal.
func (gc *GovernanceContract) CastVote(caller common.Address, id uint64, option uint64) error {
	err := gc.execute("cast-vote", caller, func(c *callContext) error {
		proposal, err := c.proposals.get(id)
		if err != nil {
			return err
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		if !isActive(proposal, c.now, meta.Paused) {
			return ErrProposalNotActive
		}
		if err := c.access.requireNotBlacklisted(caller); err != nil {
			return err
		}
		existing, err := c.votes.vote(id, caller)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyVoted
		}
		power, err := c.powers.power(caller)
		if err != nil {
			return err
		}
		if power < meta.TokenRequirement {
			return ErrInsufficientPower
		}
		if !validOption(option) {
			return ErrInvalidOption
		}
		weight, err := c.powers.effectivePower(caller)
		if err != nil {
			return err
		}
		if err := c.votes.cast(proposal, caller, option, weight, c.now); err != nil {
			return err
		}
		if err := c.proposals.put(proposal); err != nil {
			return err
		}
		c.emit(EventVoteCast, caller, id, fmt.Sprintf("option %d with weight %d", option, weight))
		return nil
	})
	if err == nil {
		voteCastCounter.Inc(1)
	}
	return err
}

// ChangeVote moves the caller's existing vote to another option. The weight
// captured at the first cast moves with it; the token requirement is not
// checked again.
func (gc *GovernanceContract) ChangeVote(caller common.Address, id uint64, option uint64) error {
	err := gc.execute("change-vote", caller, func(c *callContext) error {
		proposal, err := c.proposals.get(id)
		if err != nil {
			return err
		}
		existing, err := c.votes.vote(id, caller)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNoExistingVote
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		if !isActive(proposal, c.now, meta.Paused) {
			return ErrProposalNotActive
		}
		if err := c.access.requireNotBlacklisted(caller); err != nil {
			return err
		}
		if !validOption(option) {
			return ErrInvalidOption
		}
		if err := c.votes.change(proposal, caller, existing, option, c.now); err != nil {
			return err
		}
		c.emit(EventVoteChanged, caller, id, fmt.Sprintf("option %d -> %d with weight %d", existing.Option, option, existing.Weight))
		return nil
	})
	if err == nil {
		voteChangedCounter.Inc(1)
	}
	return err
}

// EmergencyResetProposal zeroes the tally of a proposal, drops its vote
// records and deactivates it. Only admins may call it, and only while voting
// is paused.
func (gc *GovernanceContract) EmergencyResetProposal(caller common.Address, id uint64) error {
	err := gc.execute("emergency-reset-proposal", caller, func(c *callContext) error {
		if err := c.access.requireAdmin(caller); err != nil {
			return err
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		if !meta.Paused {
			return ErrVotingNotPaused
		}
		proposal, err := c.proposals.get(id)
		if err != nil {
			return err
		}
		cleared := proposal.TotalWeightedVotes
		if err := c.votes.reset(proposal); err != nil {
			return err
		}
		proposal.Active = false
		if err := c.proposals.put(proposal); err != nil {
			return err
		}
		c.emit(EventEmergencyReset, common.Address{}, id, fmt.Sprintf("proposal %d reset, %d weighted votes cleared", id, cleared))
		return nil
	})
	if err == nil {
		emergencyResetCounter.Inc(1)
	}
	return err
}

// Proposal returns a proposal
func (gc *GovernanceContract) Proposal(id uint64) (*Proposal, error) {
	var proposal *Proposal
	err := gc.view(func(c *callContext) (err error) {
		proposal, err = c.proposals.get(id)
		return err
	})
	return proposal, err
}

// Proposals returns up to limit proposals with ids starting at from
func (gc *GovernanceContract) Proposals(from uint64, limit uint64) ([]*Proposal, error) {
	var proposals []*Proposal
	err := gc.view(func(c *callContext) error {
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		if from == 0 {
			from = 1
		}
		for id := from; id < meta.NextProposalID && uint64(len(proposals)) < limit; id++ {
			proposal, err := c.proposals.get(id)
			if err != nil {
				return err
			}
			proposals = append(proposals, proposal)
		}
		return nil
	})
	return proposals, err
}

// ProposalCount returns the number of proposals ever created
func (gc *GovernanceContract) ProposalCount() uint64 {
	var count uint64
	gc.read("proposal-count", func(c *callContext) error {
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		count = meta.NextProposalID - 1
		return nil
	})
	return count
}

// IsActive checks if a proposal accepts votes at the current ordinal
func (gc *GovernanceContract) IsActive(id uint64) bool {
	var active bool
	gc.read("is-active", func(c *callContext) error {
		proposal, err := c.proposals.get(id)
		if err == ErrProposalNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		active = isActive(proposal, c.now, meta.Paused)
		return nil
	})
	return active
}

// Results returns the tally of a proposal as seen at the current ordinal
func (gc *GovernanceContract) Results(id uint64) (*Results, error) {
	var res *Results
	err := gc.view(func(c *callContext) error {
		proposal, err := c.proposals.get(id)
		if err != nil {
			return err
		}
		meta, err := c.access.meta()
		if err != nil {
			return err
		}
		res, err = c.votes.results(proposal, c.now, meta.Paused)
		return err
	})
	return res, err
}

// Vote returns the current vote of voter on a proposal
func (gc *GovernanceContract) Vote(id uint64, voter common.Address) (*VoteRecord, error) {
	var rec *VoteRecord
	err := gc.view(func(c *callContext) (err error) {
		if _, err = c.proposals.get(id); err != nil {
			return err
		}
		rec, err = c.votes.vote(id, voter)
		if err == nil && rec == nil {
			return ErrNoExistingVote
		}
		return err
	})
	return rec, err
}

// HasVoted checks if voter has a live vote on a proposal
func (gc *GovernanceContract) HasVoted(id uint64, voter common.Address) bool {
	var voted bool
	gc.read("has-voted", func(c *callContext) error {
		rec, err := c.votes.vote(id, voter)
		voted = rec != nil
		return err
	})
	return voted
}

// Roster returns the voters of a proposal in first-vote order
func (gc *GovernanceContract) Roster(id uint64) ([]common.Address, error) {
	var voters []common.Address
	err := gc.view(func(c *callContext) (err error) {
		if _, err = c.proposals.get(id); err != nil {
			return err
		}
		voters, err = c.votes.roster(id)
		return err
	})
	return voters, err
}

// read runs a boolean or counter query whose storage errors are logged
// rather than returned
func (gc *GovernanceContract) read(op string, fn func(c *callContext) error) {
	if err := gc.view(fn); err != nil {
		gc.logger.Error("Failed to read governance state", "op", op, "err", err)
	}
}
