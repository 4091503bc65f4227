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

// EventKind names the operation an audit event records
type EventKind string

const (
	EventContractDeployed    EventKind = "contract-deployed"
	EventAdminAdded          EventKind = "admin-added"
	EventAdminRemoved        EventKind = "admin-removed"
	EventBlacklisted         EventKind = "blacklisted"
	EventUnblacklisted       EventKind = "unblacklisted"
	EventVotingPaused        EventKind = "voting-paused"
	EventVotingUnpaused      EventKind = "voting-unpaused"
	EventTokenRequirement    EventKind = "token-requirement-set"
	EventVotingPowerSet      EventKind = "voting-power-set"
	EventVotingPowerBatchSet EventKind = "voting-power-batch-set"
	EventProposalCreated     EventKind = "proposal-created"
	EventProposalDeactivated EventKind = "proposal-deactivated"
	EventVoteCast            EventKind = "vote-cast"
	EventVoteChanged         EventKind = "vote-changed"
	EventEmergencyReset      EventKind = "emergency-reset"
)

// Event is the audit record emitted by every committed mutating call. It is
// an output only side channel; the contract never reads events back.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Detail     string         `json:"detail"`
	Ordinal    uint64         `json:"ordinal"`
	Actor      common.Address `json:"actor"`
	Target     common.Address `json:"target"`
	ProposalID uint64         `json:"proposalId,omitempty"`
}
