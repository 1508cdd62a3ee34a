// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/trie"
)

var logger = log.WithContext("pkg", "state")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the world state. It is safe for concurrent use.
//
// A fork backed state materializes accounts and slots from its backend on
// first access. The root covers materialized data only.
type State struct {
	mu      sync.RWMutex
	objects map[common.Address]stateObject
	absent  map[common.Address]struct{} // resolved as absent, fork backed states only
	codes   *codeStore
	backend *fork.Backend

	accounts  trie.Trie // cache of the state root
	dirty     map[common.Address]struct{}
	root      common.Bytes32
	rootValid bool
}

// New creates an empty state.
func New() *State {
	return &State{
		objects: make(map[common.Address]stateObject),
		codes:   newCodeStore(),
		dirty:   make(map[common.Address]struct{}),
	}
}

// Backend returns the fork backend, nil if the state is not fork backed.
func (s *State) Backend() *fork.Backend {
	return s.backend
}

func (s *State) markDirty(addr common.Address) {
	s.dirty[addr] = struct{}{}
	s.rootValid = false
}

// put stores obj, or removes the account if obj is prunable.
func (s *State) put(addr common.Address, obj stateObject) {
	if obj.prunable() {
		s.drop(addr)
		return
	}
	s.objects[addr] = obj
	delete(s.absent, addr)
	s.markDirty(addr)
}

func (s *State) drop(addr common.Address) {
	delete(s.objects, addr)
	if s.backend != nil {
		s.absent[addr] = struct{}{}
	}
	s.markDirty(addr)
}

// resolve materializes the account at addr from the fork backend, unless it
// is already known. The fetch runs without holding the lock.
func (s *State) resolve(addr common.Address) error {
	if s.backend == nil {
		return nil
	}

	s.mu.RLock()
	_, known := s.objects[addr]
	if !known {
		_, known = s.absent[addr]
	}
	s.mu.RUnlock()
	if known {
		return nil
	}

	acc, err := s.backend.Account(addr)
	if err != nil {
		return &Error{err}
	}
	metricAccountCounter().AddWithLabel(1, map[string]string{"type": "account", "target": "remote"})

	s.mu.Lock()
	defer s.mu.Unlock()

	// local writes win
	if _, ok := s.objects[addr]; ok {
		return nil
	}
	if _, ok := s.absent[addr]; ok {
		return nil
	}
	if acc == nil {
		s.absent[addr] = struct{}{}
		return nil
	}

	obj := newObject()
	obj.balance = copyWord(acc.Balance)
	obj.nonce = copyWord(acc.Nonce)
	obj.codeHash = s.codes.put(acc.Code)
	obj.forked = true
	s.objects[addr] = obj
	s.markDirty(addr)
	logger.Trace("materialized account", "addr", addr)
	return nil
}

// GetAccount returns the account at addr, nil if absent.
func (s *State) GetAccount(addr common.Address) (*Account, error) {
	if err := s.resolve(addr); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	if !ok {
		return nil, nil
	}
	acc := obj.account()
	return &acc, nil
}

// GetAccountCode returns the account at addr together with its code, read
// atomically. The account is nil if absent. The code must not be modified.
func (s *State) GetAccountCode(addr common.Address) (*Account, []byte, error) {
	if err := s.resolve(addr); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	if !ok {
		return nil, nil, nil
	}
	acc := obj.account()
	return &acc, s.codes.get(obj.codeHash), nil
}

// Exists returns whether an account record is present at addr.
func (s *State) Exists(addr common.Address) (bool, error) {
	if err := s.resolve(addr); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[addr]
	return ok, nil
}

// IsEmpty returns whether the account at addr is absent, or has zero balance,
// zero nonce and no code.
func (s *State) IsEmpty(addr common.Address) (bool, error) {
	if err := s.resolve(addr); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	return !ok || obj.isEmpty(), nil
}

// SetAccount sets balance, nonce and code hash of the account at addr,
// keeping its storage. The code of a non-empty code hash must be known
// to the state.
func (s *State) SetAccount(addr common.Address, acc *Account) error {
	if !s.codes.has(acc.CodeHash) {
		return &Error{fmt.Errorf("unknown code hash %v", acc.CodeHash)}
	}
	if err := s.resolve(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[addr]
	if !ok {
		obj = newObject()
	}
	obj.balance = copyWord(acc.Balance)
	obj.nonce = copyWord(acc.Nonce)
	obj.codeHash = canonicalCodeHash(acc.CodeHash)
	s.put(addr, obj)
	return nil
}

// DeleteAccount removes the account at addr along with its storage.
// Deleting an absent account is a no-op. A deleted fork backed account is
// never fetched again.
func (s *State) DeleteAccount(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[addr]; !ok {
		if s.backend == nil {
			return
		}
		if _, ok := s.absent[addr]; ok {
			return
		}
	}
	s.drop(addr)
}

// ModifyAccount atomically replaces balance, nonce and code of the account at
// addr by the result of fn. fn receives zero values if the account is absent.
//
// fn is called with the state locked and must not access the state.
func (s *State) ModifyAccount(addr common.Address, fn func(AccountInfo) AccountInfo) error {
	if err := s.resolve(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[addr]
	if !ok {
		obj = newObject()
	}
	info := fn(AccountInfo{
		Balance: new(uint256.Int).Set(obj.balance),
		Nonce:   new(uint256.Int).Set(obj.nonce),
		Code:    s.codes.get(obj.codeHash),
	})
	obj.balance = copyWord(info.Balance)
	obj.nonce = copyWord(info.Nonce)
	obj.codeHash = s.codes.put(info.Code)
	s.put(addr, obj)
	return nil
}

// GetCode returns the code of the account at addr.
// The returned bytes must not be modified.
func (s *State) GetCode(addr common.Address) ([]byte, error) {
	if err := s.resolve(addr); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	if !ok {
		return nil, nil
	}
	return s.codes.get(obj.codeHash), nil
}

// GetCodeHash returns the code hash of the account at addr, zero if absent.
func (s *State) GetCodeHash(addr common.Address) (common.Bytes32, error) {
	if err := s.resolve(addr); err != nil {
		return common.Bytes32{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	if !ok {
		return common.Bytes32{}, nil
	}
	return obj.codeHash, nil
}

// SetCode sets the code of the account at addr.
func (s *State) SetCode(addr common.Address, code []byte) error {
	if err := s.resolve(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[addr]
	if !ok {
		obj = newObject()
	}
	obj.codeHash = s.codes.put(code)
	s.put(addr, obj)
	return nil
}

// GetBalance returns the balance of the account at addr.
func (s *State) GetBalance(addr common.Address) (*uint256.Int, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(uint256.Int), nil
	}
	return acc.Balance, nil
}

// SetBalance sets the balance of the account at addr.
func (s *State) SetBalance(addr common.Address, balance *uint256.Int) error {
	return s.ModifyAccount(addr, func(info AccountInfo) AccountInfo {
		info.Balance = balance
		return info
	})
}

// GetNonce returns the nonce of the account at addr.
func (s *State) GetNonce(addr common.Address) (*uint256.Int, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(uint256.Int), nil
	}
	return acc.Nonce, nil
}

// SetNonce sets the nonce of the account at addr.
func (s *State) SetNonce(addr common.Address, nonce *uint256.Int) error {
	return s.ModifyAccount(addr, func(info AccountInfo) AccountInfo {
		info.Nonce = nonce
		return info
	})
}

// Len returns the number of accounts present in the state.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
