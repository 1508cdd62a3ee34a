// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/forkstate/cache"
	"github.com/vechain/forkstate/common"
)

const (
	accountKeyPrefix = 'a'
	storageKeyPrefix = 's'
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

// DiskCacheOptions options for creating a disk cache.
type DiskCacheOptions struct {
	CacheSize              int // in MiB
	OpenFilesCacheCapacity int
	HotCacheSize           int // number of entries kept decoded in memory
}

// DiskCache is a Source that persists the responses of another Source.
// Data at a fixed block never changes, so entries are keyed by chain id and
// block and never expire. The latest block number is always passed through.
//
// Returned accounts are shared and must not be modified.
type DiskCache struct {
	src     Source
	stg     storage.Storage
	db      *leveldb.DB
	chainID uint64
	hot     *cache.LRU[string, any]
}

var _ Source = (*DiskCache)(nil)

// OpenDiskCache opens, or creates, a disk cache at path.
func OpenDiskCache(path string, src Source, chainID uint64, opts DiskCacheOptions) (*DiskCache, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open disk cache")
	}
	return newDiskCache(stg, src, chainID, opts)
}

// NewMemDiskCache creates a disk cache in memory.
func NewMemDiskCache(src Source, chainID uint64) (*DiskCache, error) {
	return newDiskCache(storage.NewMemStorage(), src, chainID, DiskCacheOptions{})
}

// newDiskCache takes ownership of stg, which is closed with the cache or on error.
func newDiskCache(stg storage.Storage, src Source, chainID uint64, opts DiskCacheOptions) (*DiskCache, error) {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.OpenFilesCacheCapacity < 16 {
		opts.OpenFilesCacheCapacity = 16
	}
	if opts.HotCacheSize <= 0 {
		opts.HotCacheSize = 4096
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSize / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	hot, err := cache.NewLRU[string, any](opts.HotCacheSize)
	if err != nil {
		db.Close()
		stg.Close()
		return nil, err
	}
	return &DiskCache{
		src:     src,
		stg:     stg,
		db:      db,
		chainID: chainID,
		hot:     hot,
	}, nil
}

// Close closes the underlying database and releases its directory.
func (c *DiskCache) Close() error {
	err := c.db.Close()
	if serr := c.stg.Close(); err == nil {
		err = serr
	}
	return errors.Wrap(err, "close disk cache")
}

type storedAccount struct {
	Balance *uint256.Int
	Nonce   *uint256.Int
	Code    []byte
}

func (c *DiskCache) key(prefix byte, block uint64, addr common.Address, index *common.Bytes32) []byte {
	k := make([]byte, 0, 1+8+8+20+32)
	k = append(k, prefix)
	k = binary.BigEndian.AppendUint64(k, c.chainID)
	k = binary.BigEndian.AppendUint64(k, block)
	k = append(k, addr[:]...)
	if index != nil {
		k = append(k, index[:]...)
	}
	return k
}

// load returns the cached value of key, or fetches and stores it.
func (c *DiskCache) load(kind string, key []byte, decode func([]byte) (any, error), fetch func() (any, []byte, error)) (any, error) {
	return c.hot.GetOrLoad(string(key), func() (any, error) {
		data, err := c.db.Get(key, readOpt)
		if err == nil {
			metricDiskCacheHit().AddWithLabel(1, map[string]string{"kind": kind, "event": "hit"})
			return decode(data)
		}
		if err != leveldb.ErrNotFound {
			return nil, errors.Wrap(err, "read disk cache")
		}
		metricDiskCacheHit().AddWithLabel(1, map[string]string{"kind": kind, "event": "miss"})

		v, enc, err := fetch()
		if err != nil {
			return nil, err
		}
		if err := c.db.Put(key, enc, writeOpt); err != nil {
			logger.Warn("failed to write disk cache", "err", err)
		}
		return v, nil
	})
}

// Account implements Source.
func (c *DiskCache) Account(ctx context.Context, addr common.Address, block uint64) (*RemoteAccount, error) {
	v, err := c.load("account", c.key(accountKeyPrefix, block, addr, nil),
		func(data []byte) (any, error) {
			var sa storedAccount
			if err := rlp.DecodeBytes(data, &sa); err != nil {
				return nil, errors.Wrap(err, "decode cached account")
			}
			return &RemoteAccount{Balance: sa.Balance, Nonce: sa.Nonce, Code: sa.Code}, nil
		},
		func() (any, []byte, error) {
			acc, err := c.src.Account(ctx, addr, block)
			if err != nil {
				return nil, nil, err
			}
			if acc == nil {
				acc = &RemoteAccount{}
			}
			sa := storedAccount{Balance: acc.Balance, Nonce: acc.Nonce, Code: acc.Code}
			if sa.Balance == nil {
				sa.Balance = new(uint256.Int)
			}
			if sa.Nonce == nil {
				sa.Nonce = new(uint256.Int)
			}
			enc, err := rlp.EncodeToBytes(&sa)
			if err != nil {
				return nil, nil, err
			}
			return acc, enc, nil
		})
	if err != nil {
		return nil, err
	}
	return v.(*RemoteAccount), nil
}

// StorageAt implements Source.
func (c *DiskCache) StorageAt(ctx context.Context, addr common.Address, index common.Bytes32, block uint64) (common.Bytes32, error) {
	v, err := c.load("storage", c.key(storageKeyPrefix, block, addr, &index),
		func(data []byte) (any, error) {
			if len(data) > 32 {
				return nil, errors.New("decode cached storage: value too long")
			}
			return common.BytesToBytes32(data), nil
		},
		func() (any, []byte, error) {
			val, err := c.src.StorageAt(ctx, addr, index, block)
			if err != nil {
				return nil, nil, err
			}
			return val, common.TrimLeftZeroes(val[:]), nil
		})
	if err != nil {
		return common.Bytes32{}, err
	}
	return v.(common.Bytes32), nil
}

// LatestBlockNumber implements Source. It is never cached.
func (c *DiskCache) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.src.LatestBlockNumber(ctx)
}
