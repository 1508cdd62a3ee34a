// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/forkstate/common"
)

// GetStorage returns the value of a storage slot, zero if unset.
func (s *State) GetStorage(addr common.Address, index common.Bytes32) (common.Bytes32, error) {
	if err := s.resolve(addr); err != nil {
		return common.Bytes32{}, err
	}

	s.mu.RLock()
	obj, ok := s.objects[addr]
	var (
		value common.Bytes32
		found bool
	)
	if ok {
		value, found = obj.slot(index)
	}
	s.mu.RUnlock()

	if !ok || found || !obj.forked {
		return value, nil
	}
	return s.resolveSlot(addr, index)
}

// resolveSlot materializes a storage slot of a forked account.
func (s *State) resolveSlot(addr common.Address, index common.Bytes32) (common.Bytes32, error) {
	remote, err := s.backend.Storage(addr, index)
	if err != nil {
		return common.Bytes32{}, &Error{err}
	}
	metricAccountCounter().AddWithLabel(1, map[string]string{"type": "storage", "target": "remote"})

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[addr]
	if !ok {
		// deleted meanwhile
		return common.Bytes32{}, nil
	}
	if value, found := obj.slot(index); found || !obj.forked {
		return value, nil
	}
	obj.setSlot(index, remote)
	s.objects[addr] = obj
	if !remote.IsZero() {
		s.markDirty(addr)
	}
	return remote, nil
}

// SetStorage sets the value of a storage slot. Zero values delete the slot.
// Setting a slot of an absent account creates an empty account holding it.
func (s *State) SetStorage(addr common.Address, index, value common.Bytes32) error {
	if err := s.resolve(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[addr]
	if !ok {
		if value.IsZero() {
			return nil
		}
		obj = newObject()
	}
	obj.setSlot(index, value)
	s.put(addr, obj)
	return nil
}

// GetStorageRoot returns the storage root of the account at addr, nil if
// the account is absent.
func (s *State) GetStorageRoot(addr common.Address) (*common.Bytes32, error) {
	if err := s.resolve(addr); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[addr]
	if !ok {
		return nil, nil
	}
	root := obj.storage.Hash()
	return &root, nil
}

// ForEachStorage calls fn for each materialized non-zero slot of the account
// at addr, in index order. Iteration stops if fn returns false.
// fn is called with the state locked and must not access the state.
func (s *State) ForEachStorage(addr common.Address, fn func(index, value common.Bytes32) bool) error {
	if err := s.resolve(addr); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if obj, ok := s.objects[addr]; ok {
		obj.forEachSlot(fn)
	}
	return nil
}
