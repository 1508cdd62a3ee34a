// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"runtime"
	"slices"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/forkstate/co"
	"github.com/vechain/forkstate/common"
)

// Dump is the portable JSON form of a state.
type Dump struct {
	Root     common.Bytes32                  `json:"root"`
	Accounts map[common.Address]*DumpAccount `json:"accounts"`
}

// DumpAccount is an account in a Dump.
type DumpAccount struct {
	Balance     *hexutil.U256                     `json:"balance"`
	Nonce       *hexutil.U256                     `json:"nonce"`
	Code        hexutil.Bytes                     `json:"code,omitempty"`
	CodeHash    common.Bytes32                    `json:"codeHash"`
	StorageRoot common.Bytes32                    `json:"storageRoot"`
	Storage     map[common.Bytes32]common.Bytes32 `json:"storage,omitempty"`
}

// sortedAddresses returns addresses of present accounts in ascending order.
// The caller must hold the lock.
func (s *State) sortedAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(s.objects))
	for addr := range s.objects {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return addrs
}

// Dump returns a consistent dump of the state. A fork backed state dumps
// its materialized data only.
func (s *State) Dump() *Dump {
	snap := s.Clone()
	root := snap.Root()

	addrs := snap.sortedAddresses()
	accounts := make([]*DumpAccount, len(addrs))
	<-co.Parallel(func(queue chan<- func()) {
		for i, addr := range addrs {
			queue <- func() {
				accounts[i] = snap.dumpAccount(snap.objects[addr])
			}
		}
	})

	d := &Dump{
		Root:     root,
		Accounts: make(map[common.Address]*DumpAccount, len(addrs)),
	}
	for i, addr := range addrs {
		d.Accounts[addr] = accounts[i]
	}
	return d
}

func (s *State) dumpAccount(obj stateObject) *DumpAccount {
	acc := &DumpAccount{
		Balance:     (*hexutil.U256)(new(uint256.Int).Set(obj.balance)),
		Nonce:       (*hexutil.U256)(new(uint256.Int).Set(obj.nonce)),
		Code:        s.codes.get(obj.codeHash),
		CodeHash:    obj.codeHash,
		StorageRoot: obj.storage.Hash(),
	}
	if obj.storage.Len() > 0 {
		acc.Storage = make(map[common.Bytes32]common.Bytes32, obj.storage.Len())
		obj.forEachSlot(func(index, value common.Bytes32) bool {
			acc.Storage[index] = value
			return true
		})
	}
	return acc
}

// FromDump restores a state from a dump. Code hashes, storage roots and the
// state root are verified when present in the dump.
func FromDump(d *Dump) (*State, error) {
	s := New()

	addrs := make([]common.Address, 0, len(d.Accounts))
	for addr := range d.Accounts {
		addrs = append(addrs, addr)
	}
	objs := make([]stateObject, len(addrs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, addr := range addrs {
		g.Go(func() error {
			obj, err := s.restoreAccount(d.Accounts[addr])
			if err != nil {
				return fmt.Errorf("account %v: %w", addr, err)
			}
			objs[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &Error{err}
	}

	for i, addr := range addrs {
		s.put(addr, objs[i])
	}
	if root := s.Root(); !d.Root.IsZero() && root != d.Root {
		return nil, &Error{fmt.Errorf("root mismatch: want %v, got %v", d.Root, root)}
	}
	return s, nil
}

func (s *State) restoreAccount(acc *DumpAccount) (stateObject, error) {
	obj := newObject()
	if acc == nil {
		return obj, nil
	}
	if acc.Balance != nil {
		obj.balance = new(uint256.Int).Set((*uint256.Int)(acc.Balance))
	}
	if acc.Nonce != nil {
		obj.nonce = new(uint256.Int).Set((*uint256.Int)(acc.Nonce))
	}
	obj.codeHash = s.codes.put(acc.Code)
	if !acc.CodeHash.IsZero() && canonicalCodeHash(acc.CodeHash) != obj.codeHash {
		return stateObject{}, fmt.Errorf("code hash mismatch: want %v, got %v", acc.CodeHash, obj.codeHash)
	}
	for index, value := range acc.Storage {
		obj.setSlot(index, value)
	}
	if root := obj.storage.Hash(); !acc.StorageRoot.IsZero() && root != acc.StorageRoot {
		return stateObject{}, fmt.Errorf("storage root mismatch: want %v, got %v", acc.StorageRoot, root)
	}
	return obj, nil
}
