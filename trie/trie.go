// Copyright 2014 The go-ethereum Authors
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

// Package trie implements a persistent in-memory Merkle Patricia Trie.
//
// Nodes are never modified once reachable from a trie. An update copies the
// nodes on the path from the root to the changed leaf, so copying a trie is a
// constant time operation and copies evolve independently while sharing
// unchanged subtrees. Node references are cached in the nodes, which makes
// rehashing after an update proportional to the length of the modified path.
//
// The node encoding and hashing scheme is the one of Ethereum, so a trie
// holding the same key/value pairs as an Ethereum trie has the same root.
package trie

import (
	"bytes"
	"fmt"

	"github.com/vechain/forkstate/common"
)

// Trie is a Merkle Patricia Trie. The zero value is an empty trie.
//
// Trie is not safe for concurrent updates, but distinct copies may be used
// from different goroutines, including concurrent Hash calls on shared nodes.
type Trie struct {
	root node
	size int
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{}
}

// Copy returns a copy of the trie. It costs O(1) and the copy shares
// all nodes with t.
func (t *Trie) Copy() *Trie {
	cpy := *t
	return &cpy
}

// Len returns the number of keys with a non-empty value.
func (t *Trie) Len() int {
	return t.size
}

// Get returns the value for key stored in the trie.
// The value bytes must not be modified by the caller.
func (t *Trie) Get(key []byte) []byte {
	return get(t.root, keybytesToHex(key))
}

// Update associates key with value in the trie. Subsequent calls to
// Get will return value. If value has length zero, any existing value
// is deleted from the trie.
//
// The value bytes are retained by the trie and must not be modified
// after the call.
func (t *Trie) Update(key, value []byte) {
	k := keybytesToHex(key)
	existed := get(t.root, k) != nil
	if len(value) != 0 {
		t.root = insert(t.root, k, valueNode(value))
		if !existed {
			t.size++
		}
		return
	}
	if existed {
		_, t.root = remove(t.root, k)
		t.size--
	}
}

// Hash returns the root hash of the trie. Subtrees hashed before are
// not rehashed.
func (t *Trie) Hash() common.Bytes32 {
	return rootHash(t.root)
}

// ForEach calls fn for every key/value pair in ascending key order.
// Iteration stops early if fn returns false.
func (t *Trie) ForEach(fn func(key, value []byte) bool) {
	forEach(t.root, nil, fn)
}

func get(n node, key []byte) []byte {
	for {
		switch nn := n.(type) {
		case nil:
			return nil
		case valueNode:
			if len(key) == 0 {
				return nn
			}
			return nil
		case *shortNode:
			if len(key) < len(nn.Key) || !bytes.Equal(nn.Key, key[:len(nn.Key)]) {
				return nil
			}
			n, key = nn.Val, key[len(nn.Key):]
		case *fullNode:
			if len(key) == 0 {
				return nil
			}
			n, key = nn.Children[key[0]], key[1:]
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", n, n))
		}
	}
}

func insert(n node, key []byte, value node) node {
	if len(key) == 0 {
		return value
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		// If the whole key matches, keep this short node as is
		// and only update the value.
		if matchlen == len(n.Key) {
			return &shortNode{Key: n.Key, Val: insert(n.Val, key[matchlen:], value)}
		}
		// Otherwise branch out at the index where they differ.
		branch := &fullNode{}
		branch.Children[n.Key[matchlen]] = insert(nil, n.Key[matchlen+1:], n.Val)
		branch.Children[key[matchlen]] = insert(nil, key[matchlen+1:], value)
		// Replace this shortNode with the branch if it occurs at index 0.
		if matchlen == 0 {
			return branch
		}
		// Otherwise, replace it with a short node leading up to the branch.
		return &shortNode{Key: key[:matchlen], Val: branch}

	case *fullNode:
		cpy := &fullNode{Children: n.Children}
		cpy.Children[key[0]] = insert(n.Children[key[0]], key[1:], value)
		return cpy

	case nil:
		return &shortNode{Key: key, Val: value}

	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// remove returns the new root of the trie with key deleted.
// It reduces the trie to minimal form by simplifying
// nodes on the way up after deleting recursively.
func remove(n node, key []byte) (bool, node) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n // don't replace n on mismatch
		}
		if matchlen == len(key) {
			return true, nil // remove n entirely for whole matches
		}
		// The key is longer than n.Key. Remove the remaining suffix
		// from the subtrie. Child can never be nil here since the
		// subtrie must contain at least two other values with keys
		// longer than n.Key.
		dirty, child := remove(n.Val, key[len(n.Key):])
		if !dirty {
			return false, n
		}
		switch child := child.(type) {
		case *shortNode:
			// Deleting from the subtrie reduced it to another
			// short node. Merge the nodes to avoid creating a
			// shortNode{..., shortNode{...}}.
			return true, &shortNode{Key: concat(n.Key, child.Key...), Val: child.Val}
		default:
			return true, &shortNode{Key: n.Key, Val: child}
		}

	case *fullNode:
		if len(key) == 0 {
			return false, n
		}
		dirty, nn := remove(n.Children[key[0]], key[1:])
		if !dirty {
			return false, n
		}
		cpy := &fullNode{Children: n.Children}
		cpy.Children[key[0]] = nn

		// Because n is a full node, it must've contained at least two children
		// before the delete operation. If the new child value is non-nil, n still
		// has at least two children after the deletion, and cannot be reduced to
		// a short node.
		if nn != nil {
			return true, cpy
		}
		// Check how many non-nil entries are left after deleting and
		// reduce the full node to a short node if only one entry is
		// left.
		pos := -1
		for i, cld := range &cpy.Children {
			if cld != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != terminator {
				// If the remaining entry is a short node, it replaces
				// n and its key gets the missing nibble tacked to the
				// front.
				if cnode, ok := cpy.Children[pos].(*shortNode); ok {
					return true, &shortNode{Key: concat([]byte{byte(pos)}, cnode.Key...), Val: cnode.Val}
				}
			}
			// Otherwise, n is replaced by a one-nibble short node
			// containing the child.
			return true, &shortNode{Key: []byte{byte(pos)}, Val: cpy.Children[pos]}
		}
		// n still contains at least two values and cannot be reduced.
		return true, cpy

	case valueNode:
		if len(key) == 0 {
			return true, nil
		}
		return false, n

	case nil:
		return false, nil

	default:
		panic(fmt.Sprintf("%T: invalid node: %v (%v)", n, n, key))
	}
}

func forEach(n node, path []byte, fn func(key, value []byte) bool) bool {
	switch n := n.(type) {
	case nil:
		return true
	case valueNode:
		return fn(hexToKeybytes(path), n)
	case *shortNode:
		return forEach(n.Val, concat(path, n.Key...), fn)
	case *fullNode:
		// the value slot sorts before any longer key
		if v := n.Children[terminator]; v != nil {
			if !forEach(v, path, fn) {
				return false
			}
		}
		for i := 0; i < terminator; i++ {
			if c := n.Children[i]; c != nil {
				if !forEach(c, concat(path, byte(i)), fn) {
					return false
				}
			}
		}
		return true
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}
