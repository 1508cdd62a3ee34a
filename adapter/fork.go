// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package adapter

import (
	"context"
	"math/big"

	"github.com/vechain/forkstate/fork"
	"github.com/vechain/forkstate/forkclient"
	"github.com/vechain/forkstate/state"
)

type forkOptions struct {
	cacheDir string
}

// ForkOption configures NewForked.
type ForkOption func(*forkOptions)

// WithDiskCache persists remote responses in dir.
func WithDiskCache(dir string) ForkOption {
	return func(o *forkOptions) {
		o.cacheDir = dir
	}
}

// NewForked creates an adapter on a state forked from the node at url, as
// of the given block, or the latest block if nil. overrides take precedence
// over remote accounts.
func NewForked(ctx context.Context, url string, block *big.Int, overrides []GenesisAccount, opts ...ForkOption) (adapter *Adapter, err error) {
	var options forkOptions
	for _, o := range opts {
		o(&options)
	}

	var number *uint64
	if block != nil {
		if !block.IsUint64() {
			return nil, invalidArg("block number %v", block)
		}
		n := block.Uint64()
		number = &n
	}
	gen, err := toGenesis(overrides)
	if err != nil {
		return nil, err
	}

	client, err := forkclient.DialContext(ctx, url)
	if err != nil {
		return nil, &fork.RemoteFetchError{Op: "dial", Err: err}
	}
	closers := []func(){client.Close}
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	var src fork.Source = client
	if options.cacheDir != "" {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, &fork.RemoteFetchError{Op: "chainId", Err: err}
		}
		cache, err := fork.OpenDiskCache(options.cacheDir, client, chainID, fork.DiskCacheOptions{})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() {
			if err := cache.Close(); err != nil {
				logger.Warn("failed to close fork cache", "err", err)
			}
		})
		src = cache
	}

	backend, err := fork.NewBackend(ctx, src, number)
	if err != nil {
		return nil, err
	}
	st, err := state.NewForked(backend, gen)
	if err != nil {
		return nil, err
	}

	adapter = NewWithState(st)
	adapter.closers = closers
	logger.Info("forked", "url", url, "block", backend.BlockNumber(), "cache", options.cacheDir)
	return adapter, nil
}
