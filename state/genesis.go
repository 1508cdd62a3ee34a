// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
	"github.com/vechain/forkstate/genesis"
)

// NewFromGenesis creates a state holding the given accounts.
func NewFromGenesis(accounts []genesis.Account) (*State, error) {
	allocs, err := genesis.Allocs(accounts)
	if err != nil {
		return nil, &Error{err}
	}
	s := New()
	s.apply(allocs)
	logger.Debug("state created from genesis", "accounts", len(allocs))
	return s, nil
}

// NewForked creates a state backed by a fork backend. The given accounts
// override the remote accounts at their addresses, storage included.
func NewForked(backend *fork.Backend, overrides []genesis.Account) (*State, error) {
	allocs, err := genesis.Allocs(overrides)
	if err != nil {
		return nil, &Error{err}
	}
	s := New()
	s.backend = backend
	s.absent = make(map[common.Address]struct{})
	s.apply(allocs)
	logger.Info("forked state created", "block", backend.BlockNumber(), "overrides", len(allocs))
	return s, nil
}

// apply writes allocs, replacing any previous account at their addresses.
func (s *State) apply(allocs []*genesis.Alloc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alloc := range allocs {
		obj := newObject()
		obj.balance = copyWord(alloc.Balance)
		obj.nonce = copyWord(alloc.Nonce)
		obj.codeHash = s.codes.put(alloc.Code)
		for index, value := range alloc.Storage {
			obj.setSlot(index, value)
		}
		// an empty override hides the remote account
		s.put(alloc.Address, obj)
	}
}
