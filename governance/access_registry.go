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
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var errMissingMeta = errors.New("governance contract not deployed")

// accessRegistry tracks administrators and blacklisted participants, and owns
// the contract wide pause flag and token requirement.
type accessRegistry struct {
	tx *stateTx
}

func (r *accessRegistry) meta() (*governanceMeta, error) {
	var meta governanceMeta
	ok, err := r.tx.readRLP(r.tx.key(metaKey), &meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errMissingMeta
	}
	return &meta, nil
}

func (r *accessRegistry) putMeta(meta *governanceMeta) error {
	return r.tx.writeRLP(r.tx.key(metaKey), meta)
}

// deployed reports whether the contract namespace holds state
func (r *accessRegistry) deployed() (bool, error) {
	blob, err := r.tx.get(r.tx.key(metaKey))
	return blob != nil, err
}

// flags returns the access flags of addr
func (r *accessRegistry) flags(addr common.Address) (AccessFlags, error) {
	var flags AccessFlags
	_, err := r.tx.readRLP(r.tx.accessKey(addr), &flags)
	return flags, err
}

func (r *accessRegistry) setFlags(addr common.Address, flags AccessFlags) error {
	if flags == (AccessFlags{}) {
		r.tx.del(r.tx.accessKey(addr))
		return nil
	}
	return r.tx.writeRLP(r.tx.accessKey(addr), &flags)
}

func (r *accessRegistry) isAdmin(addr common.Address) (bool, error) {
	flags, err := r.flags(addr)
	return flags.IsAdmin, err
}

func (r *accessRegistry) isBlacklisted(addr common.Address) (bool, error) {
	flags, err := r.flags(addr)
	return flags.IsBlacklisted, err
}

// requireAdmin fails with ErrNotAdmin unless addr is an administrator
func (r *accessRegistry) requireAdmin(addr common.Address) error {
	admin, err := r.isAdmin(addr)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAdmin
	}
	return nil
}

// requireNotBlacklisted fails with ErrBlacklisted if addr is blacklisted
func (r *accessRegistry) requireNotBlacklisted(addr common.Address) error {
	blacklisted, err := r.isBlacklisted(addr)
	if err != nil {
		return err
	}
	if blacklisted {
		return ErrBlacklisted
	}
	return nil
}

func (r *accessRegistry) setAdmin(addr common.Address, admin bool) error {
	flags, err := r.flags(addr)
	if err != nil {
		return err
	}
	flags.IsAdmin = admin
	return r.setFlags(addr, flags)
}

// removeAdmin revokes admin rights. The owner can never lose them.
func (r *accessRegistry) removeAdmin(addr common.Address) error {
	meta, err := r.meta()
	if err != nil {
		return err
	}
	if addr == meta.Owner {
		return ErrNotAuthorized
	}
	return r.setAdmin(addr, false)
}

func (r *accessRegistry) setBlacklisted(addr common.Address, blacklisted bool) error {
	flags, err := r.flags(addr)
	if err != nil {
		return err
	}
	flags.IsBlacklisted = blacklisted
	return r.setFlags(addr, flags)
}

// setPaused flips the global pause flag. Pausing a paused contract fails
// with ErrVotingPaused, resuming a running one with ErrVotingNotPaused.
func (r *accessRegistry) setPaused(paused bool) error {
	meta, err := r.meta()
	if err != nil {
		return err
	}
	if meta.Paused == paused {
		if paused {
			return ErrVotingPaused
		}
		return ErrVotingNotPaused
	}
	meta.Paused = paused
	return r.putMeta(meta)
}

func (r *accessRegistry) setTokenRequirement(amount uint64) error {
	meta, err := r.meta()
	if err != nil {
		return err
	}
	meta.TokenRequirement = amount
	return r.putMeta(meta)
}
