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

package genesis

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxBootstrapAdmins bounds the administrator set applied at deployment.
const MaxBootstrapAdmins = 50

var (
	errZeroOwner      = errors.New("bootstrap owner must be set")
	errTooManyAdmins  = errors.New("too many bootstrap admins")
	errZeroAllocation = errors.New("voting power allocation for zero address")
)

// PowerAllocation assigns an initial voting power to an account
type PowerAllocation struct {
	Account common.Address // 账户
	Weight  uint64         // 投票权重
}

// BootstrapConfig holds the parameters a governance contract is deployed with.
// It is applied exactly once, when the contract namespace is still empty.
type BootstrapConfig struct {
	// Owner is the deploying identity. It is always an admin and can never be removed.
	Owner common.Address

	// Admins are additional administrators granted at deployment
	Admins []common.Address

	// TokenRequirement is the minimum stored voting power needed to cast a vote
	TokenRequirement uint64

	// VotingPowers are the initial voting power assignments
	VotingPowers []PowerAllocation
}

// DefaultBootstrapConfig returns the default bootstrap configuration
func DefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		TokenRequirement: 0, // 任何登记的投票者都可投票
	}
}

// Validate checks the bootstrap configuration for obvious mistakes
func (c *BootstrapConfig) Validate() error {
	if c.Owner == (common.Address{}) {
		return errZeroOwner
	}
	if len(c.Admins) > MaxBootstrapAdmins {
		return fmt.Errorf("%w: %d > %d", errTooManyAdmins, len(c.Admins), MaxBootstrapAdmins)
	}
	for _, alloc := range c.VotingPowers {
		if alloc.Account == (common.Address{}) {
			return errZeroAllocation
		}
	}
	return nil
}

// ContractAddress returns the address of the contract deployed with this configuration
func (c *BootstrapConfig) ContractAddress() common.Address {
	return PredictGovernanceAddress(c.Owner)
}
