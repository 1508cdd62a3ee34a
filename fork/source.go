// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fork lazily materializes state from a remote node as of a fixed
// historical block.
package fork

//go:generate mockgen -source source.go -destination source_mocks.go -package fork

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vechain/forkstate/common"
)

// Source is the remote collaborator data is fetched from.
// Implementations report an unknown account as an empty one.
type Source interface {
	// Account returns balance, nonce and code of addr at the given block.
	Account(ctx context.Context, addr common.Address, block uint64) (*RemoteAccount, error)
	// StorageAt returns the value of a storage slot at the given block.
	StorageAt(ctx context.Context, addr common.Address, index common.Bytes32, block uint64) (common.Bytes32, error)
	// LatestBlockNumber returns the number of the head block.
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// RemoteAccount is an account as reported by the remote node.
type RemoteAccount struct {
	Balance *uint256.Int
	Nonce   *uint256.Int
	Code    []byte
}

// CodeHash returns the keccak256 hash of the code.
func (a *RemoteAccount) CodeHash() common.Bytes32 {
	return common.Keccak256(a.Code)
}

// IsEmpty returns if the account has zero balance, zero nonce and no code.
func (a *RemoteAccount) IsEmpty() bool {
	return (a.Balance == nil || a.Balance.IsZero()) &&
		(a.Nonce == nil || a.Nonce.IsZero()) &&
		len(a.Code) == 0
}

// RemoteFetchError is returned when the remote node is unreachable, its
// response is malformed or the requested block is unavailable.
type RemoteFetchError struct {
	Op      string
	Address *common.Address
	Index   *common.Bytes32
	Block   uint64
	Err     error
}

func (e *RemoteFetchError) Error() string {
	switch {
	case e.Index != nil:
		return fmt.Sprintf("fork: fetch %s %v[%v] at block %d: %v", e.Op, e.Address, e.Index, e.Block, e.Err)
	case e.Address != nil:
		return fmt.Sprintf("fork: fetch %s %v at block %d: %v", e.Op, e.Address, e.Block, e.Err)
	default:
		return fmt.Sprintf("fork: fetch %s: %v", e.Op, e.Err)
	}
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}
