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

package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/forkstate/common"
)

const hashLen = len(common.Bytes32{})

// refOf returns the reference of a node. Child references are written into the
// parent as is when embedded, or as a 32-byte string when hashed.
func refOf(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		if ref, ok := n.flags.load(); ok {
			return ref
		}
		ref := toRef(encodeShort(n))
		n.flags.store(ref)
		return ref
	case *fullNode:
		if ref, ok := n.flags.load(); ok {
			return ref
		}
		ref := toRef(encodeFull(n))
		n.flags.store(ref)
		return ref
	}
	panic(fmt.Sprintf("unexpected node type %T", n))
}

func toRef(enc []byte) []byte {
	if len(enc) < hashLen {
		return enc
	}
	h := common.Keccak256(enc)
	return h[:]
}

// rootHash returns the root hash of the trie rooted at n. The root node is
// always hashed, even if its encoding is shorter than a hash.
func rootHash(n node) common.Bytes32 {
	if n == nil {
		return common.EmptyRoot
	}
	ref := refOf(n)
	if len(ref) == hashLen {
		return common.BytesToBytes32(ref)
	}
	return common.Keccak256(ref)
}

func writeChild(w rlp.EncoderBuffer, child node) {
	switch c := child.(type) {
	case nil:
		w.Write(rlp.EmptyString)
	case valueNode:
		w.WriteBytes(c)
	default:
		ref := refOf(c)
		if len(ref) == hashLen {
			w.WriteBytes(ref)
		} else {
			w.Write(ref)
		}
	}
}

func encodeShort(n *shortNode) []byte {
	w := rlp.NewEncoderBuffer(nil)
	offset := w.List()
	w.WriteBytes(hexToCompact(n.Key))
	writeChild(w, n.Val)
	w.ListEnd(offset)
	enc := w.ToBytes()
	w.Flush()
	return enc
}

func encodeFull(n *fullNode) []byte {
	w := rlp.NewEncoderBuffer(nil)
	offset := w.List()
	for _, c := range &n.Children {
		writeChild(w, c)
	}
	w.ListEnd(offset)
	enc := w.ToBytes()
	w.Flush()
	return enc
}
