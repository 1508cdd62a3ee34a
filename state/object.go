// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/trie"
)

// zeroSlot marks a slot of a forked account as resolved to zero.
// Trimmed non-zero values never start with a zero byte.
var zeroSlot = []byte{0}

// stateObject is the in-memory record of an account. It is a value type:
// copying it is cheap, and the copies share trie nodes without aliasing.
type stateObject struct {
	balance  *uint256.Int // never modified in place
	nonce    *uint256.Int // never modified in place
	codeHash common.Bytes32

	storage trie.Trie // keyed by secure key, for hashing
	slots   trie.Trie // keyed by index, for reads and iteration
	forked  bool      // unresolved slots are read from the fork backend
}

func newObject() stateObject {
	return stateObject{
		balance:  new(uint256.Int),
		nonce:    new(uint256.Int),
		codeHash: common.EmptyCodeHash,
	}
}

func (o *stateObject) account() Account {
	return Account{
		Balance:     new(uint256.Int).Set(o.balance),
		Nonce:       new(uint256.Int).Set(o.nonce),
		CodeHash:    o.codeHash,
		StorageRoot: o.storage.Hash(),
	}
}

func (o *stateObject) isEmpty() bool {
	return o.balance.IsZero() && o.nonce.IsZero() && o.codeHash == common.EmptyCodeHash
}

// prunable returns if the object is equivalent to absence.
func (o *stateObject) prunable() bool {
	return o.isEmpty() && o.storage.Len() == 0
}

// slot returns the value of a storage slot. ok is false if the slot is not
// stored locally.
func (o *stateObject) slot(index common.Bytes32) (value common.Bytes32, ok bool) {
	v := o.slots.Get(index[:])
	if v == nil {
		return common.Bytes32{}, false
	}
	return common.BytesToBytes32(v), true
}

// setSlot sets a storage slot. Zero values delete the slot, or mark it
// resolved for forked objects.
func (o *stateObject) setSlot(index, value common.Bytes32) {
	key := common.SecureKey(index[:])
	if value.IsZero() {
		o.storage.Update(key[:], nil)
		if o.forked {
			o.slots.Update(index[:], zeroSlot)
		} else {
			o.slots.Update(index[:], nil)
		}
		return
	}

	trimmed := common.TrimLeftZeroes(value[:])
	enc, err := rlp.EncodeToBytes(trimmed)
	if err != nil {
		panic(err)
	}
	o.storage.Update(key[:], enc)
	o.slots.Update(index[:], trimmed)
}

// forEachSlot calls fn for each non-zero slot in index order.
func (o *stateObject) forEachSlot(fn func(index, value common.Bytes32) bool) {
	o.slots.ForEach(func(k, v []byte) bool {
		value := common.BytesToBytes32(v)
		if value.IsZero() {
			return true
		}
		return fn(common.BytesToBytes32(k), value)
	})
}

// encode returns the account trie value, given the storage root.
func (o *stateObject) encode(storageRoot common.Bytes32) []byte {
	return encodeAccount(&Account{
		Balance:     o.balance,
		Nonce:       o.nonce,
		CodeHash:    o.codeHash,
		StorageRoot: storageRoot,
	})
}
