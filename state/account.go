// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/vechain/forkstate/common"
)

// Account is the Ethereum consensus representation of an account.
type Account struct {
	Balance     *uint256.Int
	Nonce       *uint256.Int
	CodeHash    common.Bytes32 // zero value is treated as EmptyCodeHash
	StorageRoot common.Bytes32 // merkle root of the storage trie, ignored by SetAccount
}

// IsEmpty returns if an account is empty.
// An empty account has zero balance, zero nonce and no code.
func (a *Account) IsEmpty() bool {
	return isZero(a.Balance) && isZero(a.Nonce) && !a.HasCode()
}

// HasCode returns if the account has code.
func (a *Account) HasCode() bool {
	return !a.CodeHash.IsZero() && a.CodeHash != common.EmptyCodeHash
}

// AccountInfo is the mutable part of an account, see State.ModifyAccount.
type AccountInfo struct {
	Balance *uint256.Int
	Nonce   *uint256.Int
	Code    []byte
}

func isZero(i *uint256.Int) bool {
	return i == nil || i.IsZero()
}

func copyWord(i *uint256.Int) *uint256.Int {
	if i == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(i)
}

// accountRLP is the value of an account in the account trie.
type accountRLP struct {
	Nonce    *uint256.Int
	Balance  *uint256.Int
	Root     common.Bytes32
	CodeHash common.Bytes32
}

func encodeAccount(a *Account) []byte {
	data, err := rlp.EncodeToBytes(&accountRLP{
		Nonce:    copyWord(a.Nonce),
		Balance:  copyWord(a.Balance),
		Root:     a.StorageRoot,
		CodeHash: canonicalCodeHash(a.CodeHash),
	})
	if err != nil {
		panic(err)
	}
	return data
}

func canonicalCodeHash(h common.Bytes32) common.Bytes32 {
	if h.IsZero() {
		return common.EmptyCodeHash
	}
	return h
}
