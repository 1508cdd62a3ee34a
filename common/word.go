// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package common

import (
	"bytes"
	"math/big"

	"github.com/holiman/uint256"
)

// WordToBytes32 encodes a 256-bit word big-endian. A nil word encodes as zero.
func WordToBytes32(w *uint256.Int) Bytes32 {
	if w == nil {
		return Bytes32{}
	}
	return Bytes32(w.Bytes32())
}

// Bytes32ToWord decodes a big-endian 256-bit word.
func Bytes32ToWord(b Bytes32) *uint256.Int {
	return new(uint256.Int).SetBytes32(b[:])
}

// BigToBytes32 converts a non-negative big integer of at most 256 bits.
// The second return value is false if the integer is out of range.
func BigToBytes32(i *big.Int) (Bytes32, bool) {
	if i == nil {
		return Bytes32{}, true
	}
	if i.Sign() < 0 {
		return Bytes32{}, false
	}
	w, overflow := uint256.FromBig(i)
	if overflow {
		return Bytes32{}, false
	}
	return WordToBytes32(w), true
}

// TrimLeftZeroes returns the slice with leading zero bytes removed.
func TrimLeftZeroes(b []byte) []byte {
	return bytes.TrimLeft(b, "\x00")
}
