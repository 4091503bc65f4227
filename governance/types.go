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

// Capacity limits of a governance contract.
const (
	MaxOptions    = 10   // option labels per proposal
	MinVoteOption = 1    // lowest option a vote may choose
	MaxVoteOption = 5    // highest option a vote may choose
	MaxRosterSize = 1000 // voters recorded per proposal
	MaxBatchSize  = 50   // entries in one batch power assignment
)

// Proposal represents a governance proposal. Apart from Active and
// TotalWeightedVotes, a stored proposal never changes.
type Proposal struct {
	ID                 uint64         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Creator            common.Address `json:"creator"`
	StartOrdinal       uint64         `json:"startOrdinal"` // 第一个可投票的区块
	EndOrdinal         uint64         `json:"endOrdinal"`   // 最后一个可投票的区块
	Options            []string       `json:"options"`
	TotalWeightedVotes uint64         `json:"totalWeightedVotes"`
	Active             bool           `json:"active"`
	MinParticipation   uint64         `json:"minParticipation"`
}

// ProposalDraft holds the caller supplied fields of a new proposal
type ProposalDraft struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Duration         uint64   `json:"duration"` // 投票期限（区块数）
	Options          []string `json:"options"`
	MinParticipation uint64   `json:"minParticipation"`
}

// VoteRecord is a voter's current choice on a proposal. Weight is the
// effective voting power captured at the first cast and reused verbatim when
// the vote is changed.
type VoteRecord struct {
	Option  uint64 `json:"option"`
	Weight  uint64 `json:"weight"`
	Ordinal uint64 `json:"ordinal"` // 最后一次投票的区块
}

// Results is the tally of a proposal
type Results struct {
	ProposalID       uint64   `json:"proposalId"`
	Title            string   `json:"title"`
	TotalVotes       uint64   `json:"totalVotes"`
	Tallies          []uint64 `json:"tallies"` // index i holds option i+1
	Active           bool     `json:"active"`
	MinParticipation uint64   `json:"minParticipation"`
	ParticipationMet bool     `json:"participationMet"`
}

// Tally returns the weighted count of an option, or zero for an option
// outside the vote range.
func (r *Results) Tally(option uint64) uint64 {
	if option < MinVoteOption || option > MaxVoteOption {
		return 0
	}
	return r.Tallies[option-MinVoteOption]
}

// AccessFlags are the access control bits of a participant
type AccessFlags struct {
	IsAdmin       bool `json:"isAdmin"`
	IsBlacklisted bool `json:"isBlacklisted"`
}

// governanceMeta is the contract wide state owned by the access registry
type governanceMeta struct {
	Owner            common.Address
	NextProposalID   uint64
	Paused           bool
	TokenRequirement uint64
}

// validOption reports whether option lies in the vote range
func validOption(option uint64) bool {
	return option >= MinVoteOption && option <= MaxVoteOption
}
