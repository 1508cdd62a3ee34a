// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"time"

	"github.com/vechain/forkstate/co"
	"github.com/vechain/forkstate/common"
)

// minParallelHashing is the number of dirty accounts from which storage
// roots are hashed in parallel, and the least number of accounts per worker.
const minParallelHashing = 16

// Root returns the state root. Only accounts changed since the last call
// are re-encoded, and only their trie paths are rehashed.
//
// The root of a fork backed state covers materialized data only: overrides,
// local writes and remote entries read so far. Reading an account or a
// non-zero slot for the first time may therefore change the root, and two
// forks with equal contents but different read histories can differ.
func (s *State) Root() common.Bytes32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rootValid {
		return s.root
	}
	start := time.Now()

	type change struct {
		addr        common.Address
		obj         stateObject
		exists      bool
		storageRoot common.Bytes32
	}
	changes := make([]change, 0, len(s.dirty))
	for addr := range s.dirty {
		obj, ok := s.objects[addr]
		changes = append(changes, change{addr: addr, obj: obj, exists: ok})
	}

	if len(changes) >= minParallelHashing {
		<-co.ParallelN(len(changes)/minParallelHashing, func(queue chan<- func()) {
			for i := range changes {
				c := &changes[i]
				if c.exists {
					queue <- func() {
						c.storageRoot = c.obj.storage.Hash()
					}
				}
			}
		})
	} else {
		for i := range changes {
			if c := &changes[i]; c.exists {
				c.storageRoot = c.obj.storage.Hash()
			}
		}
	}

	for _, c := range changes {
		key := common.SecureKey(c.addr[:])
		if c.exists {
			s.accounts.Update(key[:], c.obj.encode(c.storageRoot))
		} else {
			s.accounts.Update(key[:], nil)
		}
	}
	clear(s.dirty)

	s.root = s.accounts.Hash()
	s.rootValid = true

	metricRootDuration().Observe(time.Since(start).Milliseconds())
	logger.Debug("computed state root", "root", s.root, "changed", len(changes), "accounts", len(s.objects), "elapsed", time.Since(start))
	return s.root
}
