// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "maps"

// Clone returns an independent copy of the state, consistent as of the call.
// Tries, code and the fork backend are shared, so the cost is linear in the
// number of accounts only.
func (s *State) Clone() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cpy := &State{
		objects:   maps.Clone(s.objects),
		codes:     s.codes,
		backend:   s.backend,
		accounts:  s.accounts,
		dirty:     maps.Clone(s.dirty),
		root:      s.root,
		rootValid: s.rootValid,
	}
	if s.absent != nil {
		cpy.absent = maps.Clone(s.absent)
	}
	return cpy
}
