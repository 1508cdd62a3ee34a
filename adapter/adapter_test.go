// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package adapter

import (
	"bytes"
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
)

var addrAA = bytes.Repeat([]byte{0xaa}, 20)

func TestGenesisScenario(t *testing.T) {
	a, err := NewWithGenesis([]GenesisAccount{{Address: addrAA, Balance: big.NewInt(100)}})
	require.NoError(t, err)

	acc, err := a.GetAccount(addrAA)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, int64(100), acc.Balance.Int64())
	assert.Equal(t, int64(0), acc.Nonce.Int64())

	require.NoError(t, a.PutContractStorage(addrAA, big.NewInt(1), big.NewInt(42)))
	v, err := a.GetContractStorage(addrAA, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	empty, err := a.AccountIsEmpty(addrAA)
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, a.DeleteAccount(addrAA))
	acc, err = a.GetAccount(addrAA)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestInvalidArguments(t *testing.T) {
	a := New()
	overflow := new(big.Int).Lsh(big.NewInt(1), 256)

	_, err := a.GetAccount([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = a.AccountExists(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = a.GetContractStorage(addrAA, overflow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, a.PutContractStorage(addrAA, big.NewInt(1), big.NewInt(-1)), ErrInvalidArgument)
	assert.ErrorIs(t, a.DeleteAccount(make([]byte, 32)), ErrInvalidArgument)
	assert.ErrorIs(t, a.Revert(0), ErrInvalidArgument)
	assert.ErrorIs(t, a.Deserialize([]byte("{")), ErrInvalidArgument)

	_, err = NewWithGenesis([]GenesisAccount{{Address: addrAA, Balance: overflow}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewWithGenesis([]GenesisAccount{{SecretKey: []byte{1}}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGenesisSecretKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	a, err := NewWithGenesis([]GenesisAccount{{SecretKey: crypto.FromECDSA(key), Balance: big.NewInt(1)}})
	require.NoError(t, err)

	exists, err := a.AccountExists(crypto.PubkeyToAddress(key.PublicKey).Bytes())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestModifyAccount(t *testing.T) {
	a := New()
	code := []byte{0x60, 0x80}

	require.NoError(t, a.ModifyAccount(addrAA, func(balance, nonce *big.Int, c []byte) (*big.Int, *big.Int, []byte) {
		assert.Zero(t, balance.Sign())
		return big.NewInt(5), big.NewInt(1), code
	}))
	got, err := a.GetCode(addrAA)
	require.NoError(t, err)
	assert.Equal(t, code, got)

	acc, err := a.GetAccount(addrAA)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256(code), acc.CodeHash)

	root := a.GetStateRoot()
	err = a.ModifyAccount(addrAA, func(balance, nonce *big.Int, c []byte) (*big.Int, *big.Int, []byte) {
		return big.NewInt(-1), nonce, c
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, root, a.GetStateRoot(), "invalid result leaves the account untouched")
}

func TestStorageRoot(t *testing.T) {
	a := New()
	root, err := a.GetAccountStorageRoot(addrAA)
	require.NoError(t, err)
	assert.Nil(t, root)

	require.NoError(t, a.PutContractStorage(addrAA, big.NewInt(1), big.NewInt(1)))
	root, err = a.GetAccountStorageRoot(addrAA)
	require.NoError(t, err)
	assert.Len(t, root, 32)
	assert.NotEqual(t, common.EmptyRoot.Bytes(), root)
	assert.Equal(t, common.EmptyRoot.Bytes(), New().GetStateRoot())
}

func TestSnapshotRevert(t *testing.T) {
	a := New()
	require.NoError(t, a.PutContractStorage(addrAA, big.NewInt(1), big.NewInt(1)))
	root := a.GetStateRoot()

	id := a.Snapshot()
	require.NoError(t, a.PutContractStorage(addrAA, big.NewInt(1), big.NewInt(2)))
	later := a.Snapshot()
	require.NoError(t, a.DeleteAccount(addrAA))

	require.NoError(t, a.Revert(id))
	assert.Equal(t, root, a.GetStateRoot())
	assert.ErrorIs(t, a.Revert(later), ErrInvalidArgument, "later snapshots are discarded")

	// the snapshot survives mutation of the reverted state
	require.NoError(t, a.DeleteAccount(addrAA))
	require.NoError(t, a.Revert(id))
	v, err := a.GetContractStorage(addrAA, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())
}

func TestSerializeAndClone(t *testing.T) {
	a, err := NewWithGenesis([]GenesisAccount{{Address: addrAA, Balance: big.NewInt(100)}})
	require.NoError(t, err)
	require.NoError(t, a.PutContractStorage(addrAA, big.NewInt(7), big.NewInt(8)))

	data, err := a.Serialize()
	require.NoError(t, err)
	cpy := a.DeepClone()

	b := New()
	require.NoError(t, b.Deserialize(data))
	assert.Equal(t, a.GetStateRoot(), b.GetStateRoot())

	require.NoError(t, a.DeleteAccount(addrAA))
	assert.Equal(t, b.GetStateRoot(), cpy.Root().Bytes())

	a.ReplaceState(cpy)
	assert.Equal(t, b.GetStateRoot(), a.GetStateRoot())
}

type fakeEth struct{}

func (fakeEth) ChainId() *hexutil.Big      { return (*hexutil.Big)(big.NewInt(1)) }
func (fakeEth) BlockNumber() hexutil.Uint64 { return 50 }

func (fakeEth) GetBalance(ethcommon.Address, hexutil.Uint64) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(7))
}

func (fakeEth) GetTransactionCount(ethcommon.Address, hexutil.Uint64) hexutil.Uint64 { return 1 }

func (fakeEth) GetCode(ethcommon.Address, hexutil.Uint64) hexutil.Bytes { return nil }

func (fakeEth) GetStorageAt(_ ethcommon.Address, key ethcommon.Hash, _ hexutil.Uint64) hexutil.Bytes {
	return key[:]
}

func newFakeNode(t *testing.T) string {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", fakeEth{}))
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})
	return ts.URL
}

func TestNewForked(t *testing.T) {
	url := newFakeNode(t)
	a, err := NewForked(context.Background(), url, nil, []GenesisAccount{{Address: addrAA, Balance: big.NewInt(100)}},
		WithDiskCache(t.TempDir()))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, uint64(50), a.State().Backend().BlockNumber())

	acc, err := a.GetAccount(addrAA)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balance.Int64(), "override wins")

	other := bytes.Repeat([]byte{0xbb}, 20)
	acc, err = a.GetAccount(other)
	require.NoError(t, err)
	assert.Equal(t, int64(7), acc.Balance.Int64())
	assert.Equal(t, int64(1), acc.Nonce.Int64())

	v, err := a.GetContractStorage(other, big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int64())
}

func TestNewForkedUnreachable(t *testing.T) {
	url := newFakeNode(t)
	a, err := NewForked(context.Background(), url, big.NewInt(10), nil)
	require.NoError(t, err)
	a.Close()

	_, err = NewForked(context.Background(), "unknown://nowhere", nil, nil)
	var fetchErr *fork.RemoteFetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestCloseAllReverseOrder(t *testing.T) {
	var order []int
	closeAll([]func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
		func() { order = append(order, 3) },
	})
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestNewForkedReusesCacheDir(t *testing.T) {
	url := newFakeNode(t)
	dir := t.TempDir()

	// a failure after the cache is opened releases it
	dup := []GenesisAccount{{Address: addrAA}, {Address: addrAA}}
	_, err := NewForked(context.Background(), url, nil, dup, WithDiskCache(dir))
	require.Error(t, err)

	for range 2 {
		a, err := NewForked(context.Background(), url, nil, nil, WithDiskCache(dir))
		require.NoError(t, err)
		acc, err := a.GetAccount(bytes.Repeat([]byte{0xbb}, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(7), acc.Balance.Int64())
		a.Close()
	}
}

func TestGetAccountCodeMatchesHash(t *testing.T) {
	a := New()
	codes := [][]byte{{0x60, 0x01}, {0x60, 0x02, 0x60, 0x03}}
	require.NoError(t, a.ModifyAccount(addrAA, func(balance, nonce *big.Int, _ []byte) (*big.Int, *big.Int, []byte) {
		return big.NewInt(1), nonce, codes[0]
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 200 {
			assert.NoError(t, a.ModifyAccount(addrAA, func(balance, nonce *big.Int, _ []byte) (*big.Int, *big.Int, []byte) {
				return balance, nonce, codes[i%2]
			}))
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		acc, err := a.GetAccount(addrAA)
		require.NoError(t, err)
		require.NotNil(t, acc)
		require.Equal(t, crypto.Keccak256(acc.Code), acc.CodeHash)
	}
}
