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
)

// proposalStore holds proposal records. Ids are allocated sequentially from
// the contract meta and never reused.
type proposalStore struct {
	tx *stateTx
}

// create allocates the next proposal id and stores a new active proposal
// whose window is [now+1, now+duration].
func (s *proposalStore) create(meta *governanceMeta, creator common.Address, draft *ProposalDraft, now uint64) (*Proposal, error) {
	end := now + draft.Duration
	if end < now {
		return nil, ErrInvalidDuration
	}
	proposal := &Proposal{
		ID:               meta.NextProposalID,
		Title:            draft.Title,
		Description:      draft.Description,
		Creator:          creator,
		StartOrdinal:     now + 1,
		EndOrdinal:       end,
		Options:          append([]string{}, draft.Options...),
		Active:           true,
		MinParticipation: draft.MinParticipation,
	}
	if err := s.put(proposal); err != nil {
		return nil, err
	}
	meta.NextProposalID++
	return proposal, nil
}

// get loads a proposal, failing with ErrProposalNotFound if it does not exist
func (s *proposalStore) get(id uint64) (*Proposal, error) {
	var proposal Proposal
	ok, err := s.tx.readRLP(s.tx.proposalKey(id), &proposal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	return &proposal, nil
}

func (s *proposalStore) put(proposal *Proposal) error {
	return s.tx.writeRLP(s.tx.proposalKey(proposal.ID), proposal)
}

// isActive reports whether a proposal accepts votes at ordinal now. Window
// expiry is detected here, on read; nothing sweeps stale proposals.
func isActive(proposal *Proposal, now uint64, paused bool) bool {
	return proposal.Active && !paused &&
		now >= proposal.StartOrdinal && now <= proposal.EndOrdinal
}
