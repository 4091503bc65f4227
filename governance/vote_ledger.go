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

	"github.com/ethereum/go-ethereum/common"
)

// voteLedger records each voter's current choice per proposal and keeps the
// per-option tallies and the proposal total in step with those choices.
//
// For every proposal p the ledger maintains
//
//	sum(tally(p, 1..5)) == p.TotalWeightedVotes
//
// and a vote record for (p, v) exists iff v's weight is counted exactly once.
type voteLedger struct {
	tx *stateTx
}

// vote returns the vote of voter on proposal id, or nil if there is none
func (l *voteLedger) vote(id uint64, voter common.Address) (*VoteRecord, error) {
	var rec VoteRecord
	ok, err := l.tx.readRLP(l.tx.voteKey(id, voter), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (l *voteLedger) tally(id uint64, option uint64) (uint64, error) {
	return l.tx.readUint64(l.tx.tallyKey(id, option))
}

func (l *voteLedger) rosterSize(id uint64) (uint64, error) {
	return l.tx.readUint64(l.tx.rosterSizeKey(id))
}

// roster returns the voters of a proposal in the order they first voted
func (l *voteLedger) roster(id uint64) ([]common.Address, error) {
	size, err := l.rosterSize(id)
	if err != nil {
		return nil, err
	}
	voters := make([]common.Address, 0, size)
	for i := uint64(0); i < size; i++ {
		blob, err := l.tx.get(l.tx.rosterKey(id, i))
		if err != nil {
			return nil, err
		}
		voters = append(voters, common.BytesToAddress(blob))
	}
	return voters, nil
}

// appendRoster records voter at the end of the roster
func (l *voteLedger) appendRoster(id uint64, voter common.Address) error {
	size, err := l.rosterSize(id)
	if err != nil {
		return err
	}
	if size >= MaxRosterSize {
		return ErrRosterFull
	}
	l.tx.put(l.tx.rosterKey(id, size), voter.Bytes())
	return l.tx.writeUint64(l.tx.rosterSizeKey(id), size+1)
}

// addWeight adds weight to an option tally
func (l *voteLedger) addWeight(id uint64, option uint64, weight uint64) error {
	current, err := l.tally(id, option)
	if err != nil {
		return err
	}
	if current+weight < current {
		return ErrTallyOverflow
	}
	return l.tx.writeUint64(l.tx.tallyKey(id, option), current+weight)
}

// subWeight removes weight from an option tally
func (l *voteLedger) subWeight(id uint64, option uint64, weight uint64) error {
	current, err := l.tally(id, option)
	if err != nil {
		return err
	}
	if current < weight {
		return fmt.Errorf("tally underflow on proposal %d option %d: %d < %d", id, option, current, weight)
	}
	return l.tx.writeUint64(l.tx.tallyKey(id, option), current-weight)
}

// cast records a first vote of voter and counts its weight. The caller has
// checked the proposal window, the voter's eligibility and the option.
func (l *voteLedger) cast(proposal *Proposal, voter common.Address, option, weight, now uint64) error {
	size, err := l.rosterSize(proposal.ID)
	if err != nil {
		return err
	}
	if size >= MaxRosterSize {
		return ErrRosterFull
	}
	if proposal.TotalWeightedVotes+weight < proposal.TotalWeightedVotes {
		return ErrTallyOverflow
	}
	if err := l.addWeight(proposal.ID, option, weight); err != nil {
		return err
	}
	proposal.TotalWeightedVotes += weight

	rec := &VoteRecord{Option: option, Weight: weight, Ordinal: now}
	if err := l.tx.writeRLP(l.tx.voteKey(proposal.ID, voter), rec); err != nil {
		return err
	}
	return l.appendRoster(proposal.ID, voter)
}

// change moves the weight captured at the first cast from the old option to
// the new one. The proposal total does not change.
func (l *voteLedger) change(proposal *Proposal, voter common.Address, rec *VoteRecord, option, now uint64) error {
	if err := l.subWeight(proposal.ID, rec.Option, rec.Weight); err != nil {
		return err
	}
	if err := l.addWeight(proposal.ID, option, rec.Weight); err != nil {
		return err
	}
	updated := &VoteRecord{Option: option, Weight: rec.Weight, Ordinal: now}
	return l.tx.writeRLP(l.tx.voteKey(proposal.ID, voter), updated)
}

// reset zeroes the tallies and total of a proposal and drops its vote
// records. The roster is kept as the audit trail of who voted.
func (l *voteLedger) reset(proposal *Proposal) error {
	for option := uint64(MinVoteOption); option <= MaxVoteOption; option++ {
		l.tx.del(l.tx.tallyKey(proposal.ID, option))
	}
	voters, err := l.roster(proposal.ID)
	if err != nil {
		return err
	}
	for _, voter := range voters {
		l.tx.del(l.tx.voteKey(proposal.ID, voter))
	}
	proposal.TotalWeightedVotes = 0
	return nil
}

// results computes the tally of a proposal as seen at ordinal now
func (l *voteLedger) results(proposal *Proposal, now uint64, paused bool) (*Results, error) {
	res := &Results{
		ProposalID:       proposal.ID,
		Title:            proposal.Title,
		TotalVotes:       proposal.TotalWeightedVotes,
		Tallies:          make([]uint64, MaxVoteOption-MinVoteOption+1),
		Active:           isActive(proposal, now, paused),
		MinParticipation: proposal.MinParticipation,
		ParticipationMet: proposal.TotalWeightedVotes >= proposal.MinParticipation,
	}
	for option := uint64(MinVoteOption); option <= MaxVoteOption; option++ {
		count, err := l.tally(proposal.ID, option)
		if err != nil {
			return nil, err
		}
		res.Tallies[option-MinVoteOption] = count
	}
	return res, nil
}
