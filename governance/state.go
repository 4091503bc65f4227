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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// Storage key prefixes, all scoped by the contract address
	metaKey          = []byte("m")
	accessPrefix     = []byte("a")
	powerPrefix      = []byte("w")
	proposalPrefix   = []byte("p")
	votePrefix       = []byte("v")
	tallyPrefix      = []byte("t")
	rosterPrefix     = []byte("r")
	rosterSizePrefix = []byte("n")
	noncePrefix      = []byte("N")
)

// stateTx stages the writes of a single call on top of the database. Nothing
// reaches the database until commit, which applies every staged write in one
// batch; dropping the transaction discards them.
type stateTx struct {
	db      ethdb.KeyValueStore
	ns      []byte
	writes  map[string][]byte
	deletes map[string]struct{}
}

func newStateTx(db ethdb.KeyValueStore, contract common.Address) *stateTx {
	return &stateTx{
		db:      db,
		ns:      contract.Bytes(),
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// key prefixes the given parts with the contract namespace
func (tx *stateTx) key(parts ...[]byte) []byte {
	size := len(tx.ns)
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, tx.ns...)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// get returns the raw value under key, or nil if it does not exist
func (tx *stateTx) get(key []byte) ([]byte, error) {
	k := string(key)
	if _, deleted := tx.deletes[k]; deleted {
		return nil, nil
	}
	if val, ok := tx.writes[k]; ok {
		return val, nil
	}
	ok, err := tx.db.Has(key)
	if err != nil || !ok {
		return nil, err
	}
	return tx.db.Get(key)
}

func (tx *stateTx) put(key, val []byte) {
	k := string(key)
	delete(tx.deletes, k)
	tx.writes[k] = common.CopyBytes(val)
}

func (tx *stateTx) del(key []byte) {
	k := string(key)
	delete(tx.writes, k)
	tx.deletes[k] = struct{}{}
}

// dirty reports whether the transaction staged any write
func (tx *stateTx) dirty() bool {
	return len(tx.writes) > 0 || len(tx.deletes) > 0
}

// commit flushes all staged writes atomically
func (tx *stateTx) commit() error {
	if !tx.dirty() {
		return nil
	}
	batch := tx.db.NewBatch()
	for k, v := range tx.writes {
		if err := batch.Put([]byte(k), v); err != nil {
			return err
		}
	}
	for k := range tx.deletes {
		if err := batch.Delete([]byte(k)); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	tx.writes = make(map[string][]byte)
	tx.deletes = make(map[string]struct{})
	return nil
}

// readRLP decodes the value under key into val. It reports false if the key
// does not exist.
func (tx *stateTx) readRLP(key []byte, val interface{}) (bool, error) {
	blob, err := tx.get(key)
	if err != nil || blob == nil {
		return false, err
	}
	if err := rlp.DecodeBytes(blob, val); err != nil {
		return false, err
	}
	return true, nil
}

func (tx *stateTx) writeRLP(key []byte, val interface{}) error {
	blob, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	tx.put(key, blob)
	return nil
}

// readUint64 returns the counter under key, zero if missing
func (tx *stateTx) readUint64(key []byte) (uint64, error) {
	var n uint64
	if _, err := tx.readRLP(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// writeUint64 stores a counter. Zero counters are deleted.
func (tx *stateTx) writeUint64(key []byte, n uint64) error {
	if n == 0 {
		tx.del(key)
		return nil
	}
	return tx.writeRLP(key, n)
}

func encodeUint64(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return buf[:]
}

func (tx *stateTx) accessKey(addr common.Address) []byte {
	return tx.key(accessPrefix, addr.Bytes())
}

func (tx *stateTx) powerKey(addr common.Address) []byte {
	return tx.key(powerPrefix, addr.Bytes())
}

func (tx *stateTx) proposalKey(id uint64) []byte {
	return tx.key(proposalPrefix, encodeUint64(id))
}

func (tx *stateTx) voteKey(id uint64, voter common.Address) []byte {
	return tx.key(votePrefix, encodeUint64(id), voter.Bytes())
}

func (tx *stateTx) tallyKey(id uint64, option uint64) []byte {
	return tx.key(tallyPrefix, encodeUint64(id), encodeUint64(option))
}

func (tx *stateTx) rosterKey(id uint64, index uint64) []byte {
	return tx.key(rosterPrefix, encodeUint64(id), encodeUint64(index))
}

func (tx *stateTx) rosterSizeKey(id uint64) []byte {
	return tx.key(rosterSizePrefix, encodeUint64(id))
}

func (tx *stateTx) nonceKey(addr common.Address) []byte {
	return tx.key(noncePrefix, addr.Bytes())
}
