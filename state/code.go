// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"sync"

	"github.com/vechain/forkstate/common"
)

// codeStore is a content addressed store of contract code. It is shared by
// a state and all its clones. Code is immutable and never removed.
type codeStore struct {
	mu    sync.RWMutex
	codes map[common.Bytes32][]byte
}

func newCodeStore() *codeStore {
	return &codeStore{codes: make(map[common.Bytes32][]byte)}
}

// put stores code and returns its hash.
func (c *codeStore) put(code []byte) common.Bytes32 {
	if len(code) == 0 {
		return common.EmptyCodeHash
	}
	hash := common.Keccak256(code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.codes[hash]; !ok {
		c.codes[hash] = append([]byte(nil), code...)
	}
	return hash
}

func (c *codeStore) has(hash common.Bytes32) bool {
	hash = canonicalCodeHash(hash)
	if hash == common.EmptyCodeHash {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.codes[hash]
	return ok
}

// get returns the code of hash. The returned bytes must not be modified.
// It panics if code referenced by an account is missing.
func (c *codeStore) get(hash common.Bytes32) []byte {
	hash = canonicalCodeHash(hash)
	if hash == common.EmptyCodeHash {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[hash]
	if !ok {
		panic(fmt.Errorf("state: missing code %v", hash))
	}
	return code
}
