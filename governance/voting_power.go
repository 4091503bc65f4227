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

// powerLedger maps participants to their voting power
type powerLedger struct {
	tx *stateTx
}

// power returns the stored power of addr, zero if never set
func (l *powerLedger) power(addr common.Address) (uint64, error) {
	return l.tx.readUint64(l.tx.powerKey(addr))
}

// effectivePower is the weight a vote by addr contributes. Unset and zero
// power both count as one, so every eligible voter has influence.
func (l *powerLedger) effectivePower(addr common.Address) (uint64, error) {
	power, err := l.power(addr)
	if err != nil {
		return 0, err
	}
	if power == 0 {
		return 1, nil
	}
	return power, nil
}

func (l *powerLedger) setPower(addr common.Address, weight uint64) error {
	return l.tx.writeUint64(l.tx.powerKey(addr), weight)
}

// batchSetPower assigns weights[i] to voters[i]. Both sequences are checked
// before anything is assigned.
func (l *powerLedger) batchSetPower(voters []common.Address, weights []uint64) error {
	if len(voters) != len(weights) {
		return ErrArityMismatch
	}
	if len(voters) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	for i, voter := range voters {
		if err := l.setPower(voter, weights[i]); err != nil {
			return err
		}
	}
	return nil
}
