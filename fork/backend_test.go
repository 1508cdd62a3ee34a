// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vechain/forkstate/common"
)

func newTestBackend(t *testing.T, src Source) *Backend {
	block := uint64(100)
	b, err := NewBackend(context.Background(), src, &block)
	require.NoError(t, err)
	return b
}

func TestNewBackendLatestBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().LatestBlockNumber(gomock.Any()).Return(uint64(1234), nil)

	b, err := NewBackend(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), b.BlockNumber())
}

func TestNewBackendLatestBlockError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().LatestBlockNumber(gomock.Any()).Return(uint64(0), errors.New("connection refused"))

	_, err := NewBackend(context.Background(), src, nil)
	var fetchErr *RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "blockNumber", fetchErr.Op)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBackendAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	addr := common.Address{1}
	empty := common.Address{2}
	src.EXPECT().Account(gomock.Any(), addr, uint64(100)).Return(&RemoteAccount{
		Balance: uint256.NewInt(10),
		Nonce:   uint256.NewInt(1),
		Code:    []byte{0x60, 0x00},
	}, nil).Times(1)
	src.EXPECT().Account(gomock.Any(), empty, uint64(100)).Return(&RemoteAccount{}, nil).Times(1)

	b := newTestBackend(t, src)
	assert.Equal(t, StatusUnknown, b.Status(addr))

	for range 3 {
		acc, err := b.Account(addr)
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, uint64(10), acc.Balance.Uint64())
		assert.Equal(t, common.Keccak256([]byte{0x60, 0x00}), acc.CodeHash())
	}
	assert.Equal(t, StatusResolved, b.Status(addr))

	acc, err := b.Account(empty)
	require.NoError(t, err)
	assert.Nil(t, acc, "empty remote account reads as absent")
	acc, err = b.Account(empty)
	require.NoError(t, err)
	assert.Nil(t, acc)
	assert.Equal(t, StatusResolved, b.Status(empty))
}

func TestBackendStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	addr := common.Address{1}
	src.EXPECT().StorageAt(gomock.Any(), addr, common.Bytes32{1}, uint64(100)).Return(common.Bytes32{31: 42}, nil).Times(1)
	src.EXPECT().StorageAt(gomock.Any(), addr, common.Bytes32{2}, uint64(100)).Return(common.Bytes32{}, nil).Times(1)

	b := newTestBackend(t, src)
	for range 2 {
		v, err := b.Storage(addr, common.Bytes32{1})
		require.NoError(t, err)
		assert.Equal(t, common.Bytes32{31: 42}, v)

		v, err = b.Storage(addr, common.Bytes32{2})
		require.NoError(t, err)
		assert.True(t, v.IsZero())
	}
	assert.Equal(t, StatusResolved, b.SlotStatus(addr, common.Bytes32{1}))
	assert.Equal(t, StatusUnknown, b.SlotStatus(addr, common.Bytes32{3}))
}

func TestBackendSingleFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	addr := common.Address{1}
	release := make(chan struct{})
	var calls atomic.Int32
	src.EXPECT().Account(gomock.Any(), addr, uint64(100)).DoAndReturn(
		func(context.Context, common.Address, uint64) (*RemoteAccount, error) {
			calls.Add(1)
			<-release
			return &RemoteAccount{Balance: uint256.NewInt(7)}, nil
		}).Times(1)

	b := newTestBackend(t, src)

	const n = 16
	var wg sync.WaitGroup
	results := make([]*RemoteAccount, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc, err := b.Account(addr)
			assert.NoError(t, err)
			results[i] = acc
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusInFlight, b.Status(addr))
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, acc := range results {
		require.NotNil(t, acc)
		assert.Equal(t, uint64(7), acc.Balance.Uint64())
	}
	assert.Equal(t, StatusResolved, b.Status(addr))
}

func TestBackendFailureNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	addr := common.Address{1}
	cause := errors.New("timeout")
	gomock.InOrder(
		src.EXPECT().Account(gomock.Any(), addr, uint64(100)).Return(nil, cause),
		src.EXPECT().Account(gomock.Any(), addr, uint64(100)).Return(&RemoteAccount{Nonce: uint256.NewInt(3)}, nil),
	)
	src.EXPECT().StorageAt(gomock.Any(), addr, common.Bytes32{}, uint64(100)).Return(common.Bytes32{}, cause)

	b := newTestBackend(t, src)

	_, err := b.Account(addr)
	var fetchErr *RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "account", fetchErr.Op)
	assert.Equal(t, addr, *fetchErr.Address)
	assert.Equal(t, uint64(100), fetchErr.Block)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StatusUnknown, b.Status(addr))

	acc, err := b.Account(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), acc.Nonce.Uint64())

	_, err = b.Storage(addr, common.Bytes32{})
	require.ErrorAs(t, err, &fetchErr)
	assert.NotNil(t, fetchErr.Index)
	assert.Equal(t, StatusUnknown, b.SlotStatus(addr, common.Bytes32{}))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "in-flight", StatusInFlight.String())
	assert.Equal(t, "resolved", StatusResolved.String())
}
