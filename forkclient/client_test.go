// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package forkclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
)

type fakeAccount struct {
	balance *hexutil.Big
	nonce   hexutil.Uint64
	code    hexutil.Bytes
	storage map[ethcommon.Hash]ethcommon.Hash
}

// fakeEth serves the eth namespace for a single historical block.
type fakeEth struct {
	block    hexutil.Uint64
	accounts map[ethcommon.Address]*fakeAccount
}

var errUnknownBlock = errors.New("header not found")

func (f *fakeEth) lookup(addr ethcommon.Address, block hexutil.Uint64) (*fakeAccount, error) {
	if block != f.block {
		return nil, errUnknownBlock
	}
	if acc, ok := f.accounts[addr]; ok {
		return acc, nil
	}
	return &fakeAccount{balance: new(hexutil.Big)}, nil
}

func (f *fakeEth) ChainId() *hexutil.Big { return (*hexutil.Big)(hexutil.MustDecodeBig("0x7a69")) }

func (f *fakeEth) BlockNumber() hexutil.Uint64 { return f.block + 10 }

func (f *fakeEth) GetBalance(addr ethcommon.Address, block hexutil.Uint64) (*hexutil.Big, error) {
	acc, err := f.lookup(addr, block)
	if err != nil {
		return nil, err
	}
	return acc.balance, nil
}

func (f *fakeEth) GetTransactionCount(addr ethcommon.Address, block hexutil.Uint64) (hexutil.Uint64, error) {
	acc, err := f.lookup(addr, block)
	if err != nil {
		return 0, err
	}
	return acc.nonce, nil
}

func (f *fakeEth) GetCode(addr ethcommon.Address, block hexutil.Uint64) (hexutil.Bytes, error) {
	acc, err := f.lookup(addr, block)
	if err != nil {
		return nil, err
	}
	return acc.code, nil
}

func (f *fakeEth) GetStorageAt(addr ethcommon.Address, key ethcommon.Hash, block hexutil.Uint64) (hexutil.Bytes, error) {
	acc, err := f.lookup(addr, block)
	if err != nil {
		return nil, err
	}
	val := acc.storage[key]
	return val[:], nil
}

func newTestClient(t *testing.T) *Client {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &fakeEth{
		block: 100,
		accounts: map[ethcommon.Address]*fakeAccount{
			{0xaa}: {
				balance: (*hexutil.Big)(hexutil.MustDecodeBig("0xde0b6b3a7640000")),
				nonce:   5,
				code:    hexutil.Bytes{0x60, 0x80},
				storage: map[ethcommon.Hash]ethcommon.Hash{
					{31: 1}: {31: 42},
				},
			},
		},
	}))
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})

	c, err := Dial(ts.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClientAccount(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	acc, err := c.Account(ctx, common.Address{0xaa}, 100)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", acc.Balance.Dec())
	assert.Equal(t, uint64(5), acc.Nonce.Uint64())
	assert.Equal(t, []byte{0x60, 0x80}, acc.Code)
	assert.False(t, acc.IsEmpty())

	acc, err = c.Account(ctx, common.Address{0xbb}, 100)
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())

	_, err = c.Account(ctx, common.Address{0xaa}, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
}

func TestClientStorageAt(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	v, err := c.StorageAt(ctx, common.Address{0xaa}, common.Bytes32{31: 1}, 100)
	require.NoError(t, err)
	assert.Equal(t, common.Bytes32{31: 42}, v)

	v, err = c.StorageAt(ctx, common.Address{0xaa}, common.Bytes32{31: 2}, 100)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	_, err = c.StorageAt(ctx, common.Address{0xaa}, common.Bytes32{31: 1}, 1)
	assert.Error(t, err)
}

func TestClientChain(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), id)

	n, err := c.LatestBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), n)
}

func TestClientAsForkSource(t *testing.T) {
	c := newTestClient(t)

	block := uint64(100)
	b, err := fork.NewBackend(context.Background(), c, &block)
	require.NoError(t, err)

	acc, err := b.Account(common.Address{0xaa})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), acc.Nonce.Uint64())

	acc, err = b.Account(common.Address{0xbb})
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestDialError(t *testing.T) {
	_, err := Dial("unknown://nowhere")
	assert.Error(t, err)
}
