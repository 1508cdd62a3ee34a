// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package forkclient reads historical state from an Ethereum JSON-RPC node.
package forkclient

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
)

// Client implements fork.Source over JSON-RPC.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

var _ fork.Source = (*Client)(nil)

// Dial connects to the node at url. Supported schemes are those of go-ethereum's rpc package.
func Dial(url string) (*Client, error) {
	return DialContext(context.Background(), url)
}

// DialContext connects to the node at url with the given context.
func DialContext(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return NewClient(c), nil
}

// NewClient creates a client on an established connection.
func NewClient(c *rpc.Client) *Client {
	return &Client{
		rpc: c,
		eth: ethclient.NewClient(c),
	}
}

// Close closes the connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// ChainID returns the chain id of the node.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "eth_chainId")
	}
	if !id.IsUint64() {
		return 0, errors.Errorf("eth_chainId: chain id %v overflows uint64", id)
	}
	return id.Uint64(), nil
}

// LatestBlockNumber implements fork.Source.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "eth_blockNumber")
	}
	return n, nil
}

// Account implements fork.Source. Balance, nonce and code are fetched in a single batch.
func (c *Client) Account(ctx context.Context, addr common.Address, block uint64) (*fork.RemoteAccount, error) {
	var (
		balance hexutil.U256
		nonce   hexutil.Uint64
		code    hexutil.Bytes
		number  = hexutil.EncodeUint64(block)
	)
	batch := []rpc.BatchElem{
		{Method: "eth_getBalance", Args: []any{addr, number}, Result: &balance},
		{Method: "eth_getTransactionCount", Args: []any{addr, number}, Result: &nonce},
		{Method: "eth_getCode", Args: []any{addr, number}, Result: &code},
	}
	if err := c.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, errors.Wrap(err, "batch call")
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return nil, errors.Wrap(elem.Error, elem.Method)
		}
	}

	bal := uint256.Int(balance)
	return &fork.RemoteAccount{
		Balance: &bal,
		Nonce:   uint256.NewInt(uint64(nonce)),
		Code:    code,
	}, nil
}

// StorageAt implements fork.Source.
func (c *Client) StorageAt(ctx context.Context, addr common.Address, index common.Bytes32, block uint64) (common.Bytes32, error) {
	var val hexutil.Bytes
	if err := c.rpc.CallContext(ctx, &val, "eth_getStorageAt", addr, index, hexutil.EncodeUint64(block)); err != nil {
		return common.Bytes32{}, errors.Wrap(err, "eth_getStorageAt")
	}
	if len(val) > 32 {
		return common.Bytes32{}, errors.Errorf("eth_getStorageAt: value of %d bytes", len(val))
	}
	return common.BytesToBytes32(val), nil
}
