// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"context"
	"errors"
	"time"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/log"
)

var logger = log.WithContext("pkg", "fork")

type slotKey struct {
	addr  common.Address
	index common.Bytes32
}

// Backend resolves accounts and storage slots from a Source as of a fixed
// block. Every key is fetched at most once, and concurrent requests of one
// key wait for a single fetch. Failed fetches are not cached.
//
// Fetches are not cancellable. Timeouts are up to the Source.
type Backend struct {
	src      Source
	block    uint64
	accounts *tracker[common.Address, *RemoteAccount]
	slots    *tracker[slotKey, common.Bytes32]
}

// NewBackend creates a backend reading src at the given block, or at the
// latest block of src if block is nil.
func NewBackend(ctx context.Context, src Source, block *uint64) (*Backend, error) {
	var number uint64
	if block != nil {
		number = *block
	} else {
		start := time.Now()
		n, err := src.LatestBlockNumber(ctx)
		observeFetch("block", start, err)
		if err != nil {
			return nil, wrapFetchError(err, "blockNumber", nil, nil, 0)
		}
		number = n
	}
	logger.Info("fork backend ready", "block", number)

	return &Backend{
		src:   src,
		block: number,
		accounts: newTracker[common.Address, *RemoteAccount](func(addr common.Address) string {
			return string(addr[:])
		}),
		slots: newTracker[slotKey, common.Bytes32](func(k slotKey) string {
			return string(k.addr[:]) + string(k.index[:])
		}),
	}, nil
}

// BlockNumber returns the block the backend reads at.
func (b *Backend) BlockNumber() uint64 {
	return b.block
}

// Status returns the resolution status of the account at addr.
func (b *Backend) Status(addr common.Address) Status {
	return b.accounts.status(addr)
}

// SlotStatus returns the resolution status of a storage slot.
func (b *Backend) SlotStatus(addr common.Address, index common.Bytes32) Status {
	return b.slots.status(slotKey{addr, index})
}

// Account returns the account at addr. A nil account means the address
// is absent on the remote chain.
func (b *Backend) Account(addr common.Address) (*RemoteAccount, error) {
	acc, shared, err := b.accounts.resolve(addr, func() (*RemoteAccount, error) {
		start := time.Now()
		acc, err := b.src.Account(context.Background(), addr, b.block)
		observeFetch("account", start, err)
		if err != nil {
			logger.Debug("failed to fetch account", "addr", addr, "err", err)
			return nil, wrapFetchError(err, "account", &addr, nil, b.block)
		}
		if acc == nil || acc.IsEmpty() {
			return nil, nil
		}
		return acc, nil
	})
	if shared {
		logger.Trace("joined in-flight account fetch", "addr", addr)
	}
	return acc, err
}

// Storage returns the value of a storage slot, zero if unset.
func (b *Backend) Storage(addr common.Address, index common.Bytes32) (common.Bytes32, error) {
	k := slotKey{addr, index}
	val, _, err := b.slots.resolve(k, func() (common.Bytes32, error) {
		start := time.Now()
		val, err := b.src.StorageAt(context.Background(), addr, index, b.block)
		observeFetch("storage", start, err)
		if err != nil {
			logger.Debug("failed to fetch storage", "addr", addr, "index", index, "err", err)
			return common.Bytes32{}, wrapFetchError(err, "storage", &addr, &index, b.block)
		}
		return val, nil
	})
	return val, err
}

func wrapFetchError(err error, op string, addr *common.Address, index *common.Bytes32, block uint64) error {
	var fetchErr *RemoteFetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &RemoteFetchError{
		Op:      op,
		Address: addr,
		Index:   index,
		Block:   block,
		Err:     err,
	}
}
