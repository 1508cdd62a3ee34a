// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package adapter exposes a state to a host application working with raw
// byte buffers and big integers.
package adapter

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/genesis"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/state"
)

var logger = log.WithContext("pkg", "adapter")

// ErrInvalidArgument is returned for malformed host input.
var ErrInvalidArgument = errors.New("adapter: invalid argument")

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Account is the host representation of an account.
type Account struct {
	Balance     *big.Int
	Nonce       *big.Int
	Code        []byte
	CodeHash    []byte
	StorageRoot []byte
}

// GenesisAccount is an initial account given by the host. Either Address
// or SecretKey must be set.
type GenesisAccount struct {
	Address   []byte
	SecretKey []byte
	Balance   *big.Int
}

// Adapter owns exactly one live state, which may be replaced.
type Adapter struct {
	mu        sync.Mutex
	state     *state.State
	snapshots []*state.State
	closers   []func()
}

// New creates an adapter on an empty state.
func New() *Adapter {
	return NewWithState(state.New())
}

// NewWithState creates an adapter on st.
func NewWithState(st *state.State) *Adapter {
	return &Adapter{state: st}
}

// NewWithGenesis creates an adapter on a state holding the given accounts.
func NewWithGenesis(accounts []GenesisAccount) (*Adapter, error) {
	gen, err := toGenesis(accounts)
	if err != nil {
		return nil, err
	}
	st, err := state.NewFromGenesis(gen)
	if err != nil {
		return nil, err
	}
	return NewWithState(st), nil
}

func toGenesis(accounts []GenesisAccount) ([]genesis.Account, error) {
	gen := make([]genesis.Account, 0, len(accounts))
	for i, a := range accounts {
		var acc genesis.Account
		if a.Address != nil {
			addr, err := toAddress(a.Address)
			if err != nil {
				return nil, err
			}
			acc.Address = &addr
		}
		if a.SecretKey != nil {
			if len(a.SecretKey) != 32 {
				return nil, invalidArg("genesis account #%d: secret key of %d bytes", i, len(a.SecretKey))
			}
			acc.PrivateKey = hex.EncodeToString(a.SecretKey)
		}
		if a.Balance != nil {
			if _, err := toWord(a.Balance); err != nil {
				return nil, err
			}
			acc.Balance = genesis.NewHexOrDecimal256(a.Balance)
		}
		gen = append(gen, acc)
	}
	return gen, nil
}

func toAddress(b []byte) (common.Address, error) {
	if len(b) != common.AddressLength {
		return common.Address{}, invalidArg("address of %d bytes", len(b))
	}
	return common.BytesToAddress(b), nil
}

func toWord(i *big.Int) (*uint256.Int, error) {
	if i == nil {
		return new(uint256.Int), nil
	}
	if i.Sign() < 0 {
		return nil, invalidArg("negative value %v", i)
	}
	w, overflow := uint256.FromBig(i)
	if overflow {
		return nil, invalidArg("value %v overflows 256 bits", i)
	}
	return w, nil
}

func toBytes32(i *big.Int) (common.Bytes32, error) {
	w, err := toWord(i)
	if err != nil {
		return common.Bytes32{}, err
	}
	return common.WordToBytes32(w), nil
}

// State returns the live state.
func (a *Adapter) State() *state.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ReplaceState installs st as the live state.
func (a *Adapter) ReplaceState(st *state.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = st
}

// GetAccount returns the account at addr, nil if absent.
func (a *Adapter) GetAccount(addr []byte) (*Account, error) {
	address, err := toAddress(addr)
	if err != nil {
		return nil, err
	}
	acc, code, err := a.State().GetAccountCode(address)
	if err != nil || acc == nil {
		return nil, err
	}
	return &Account{
		Balance:     acc.Balance.ToBig(),
		Nonce:       acc.Nonce.ToBig(),
		Code:        append([]byte(nil), code...),
		CodeHash:    acc.CodeHash.Bytes(),
		StorageRoot: acc.StorageRoot.Bytes(),
	}, nil
}

// AccountExists returns whether an account is present at addr.
func (a *Adapter) AccountExists(addr []byte) (bool, error) {
	address, err := toAddress(addr)
	if err != nil {
		return false, err
	}
	return a.State().Exists(address)
}

// AccountIsEmpty returns whether the account at addr is absent or empty.
func (a *Adapter) AccountIsEmpty(addr []byte) (bool, error) {
	address, err := toAddress(addr)
	if err != nil {
		return false, err
	}
	return a.State().IsEmpty(address)
}

// DeleteAccount removes the account at addr and its storage.
func (a *Adapter) DeleteAccount(addr []byte) error {
	address, err := toAddress(addr)
	if err != nil {
		return err
	}
	a.State().DeleteAccount(address)
	return nil
}

// ModifyFunc computes new balance, nonce and code of an account from the
// current ones. It must not call back into the adapter.
type ModifyFunc func(balance, nonce *big.Int, code []byte) (*big.Int, *big.Int, []byte)

// ModifyAccount atomically applies fn to the account at addr. If fn returns
// values out of range, the account is left untouched and ErrInvalidArgument
// is returned.
func (a *Adapter) ModifyAccount(addr []byte, fn ModifyFunc) error {
	address, err := toAddress(addr)
	if err != nil {
		return err
	}
	var fnErr error
	err = a.State().ModifyAccount(address, func(info state.AccountInfo) state.AccountInfo {
		balance, nonce, code := fn(info.Balance.ToBig(), info.Nonce.ToBig(), append([]byte(nil), info.Code...))
		b, err := toWord(balance)
		if err != nil {
			fnErr = err
			return info
		}
		n, err := toWord(nonce)
		if err != nil {
			fnErr = err
			return info
		}
		return state.AccountInfo{Balance: b, Nonce: n, Code: code}
	})
	if err != nil {
		return err
	}
	return fnErr
}

// GetCode returns the code of the account at addr.
func (a *Adapter) GetCode(addr []byte) ([]byte, error) {
	address, err := toAddress(addr)
	if err != nil {
		return nil, err
	}
	code, err := a.State().GetCode(address)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), code...), nil
}

// GetContractStorage returns the value of a storage slot.
func (a *Adapter) GetContractStorage(addr []byte, index *big.Int) (*big.Int, error) {
	address, err := toAddress(addr)
	if err != nil {
		return nil, err
	}
	key, err := toBytes32(index)
	if err != nil {
		return nil, err
	}
	value, err := a.State().GetStorage(address, key)
	if err != nil {
		return nil, err
	}
	return common.Bytes32ToWord(value).ToBig(), nil
}

// PutContractStorage sets the value of a storage slot. Zero deletes it.
func (a *Adapter) PutContractStorage(addr []byte, index, value *big.Int) error {
	address, err := toAddress(addr)
	if err != nil {
		return err
	}
	key, err := toBytes32(index)
	if err != nil {
		return err
	}
	val, err := toBytes32(value)
	if err != nil {
		return err
	}
	return a.State().SetStorage(address, key, val)
}

// GetAccountStorageRoot returns the storage root of the account at addr,
// nil if absent.
func (a *Adapter) GetAccountStorageRoot(addr []byte) ([]byte, error) {
	address, err := toAddress(addr)
	if err != nil {
		return nil, err
	}
	root, err := a.State().GetStorageRoot(address)
	if err != nil || root == nil {
		return nil, err
	}
	return root.Bytes(), nil
}

// GetStateRoot returns the state root.
func (a *Adapter) GetStateRoot() []byte {
	return a.State().Root().Bytes()
}

// Serialize returns the portable JSON form of the live state.
func (a *Adapter) Serialize() ([]byte, error) {
	return json.Marshal(a.State().Dump())
}

// Deserialize replaces the live state with one restored from Serialize output.
func (a *Adapter) Deserialize(data []byte) error {
	var d state.Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return invalidArg("decode dump: %v", err)
	}
	st, err := state.FromDump(&d)
	if err != nil {
		return err
	}
	a.ReplaceState(st)
	return nil
}

// DeepClone returns an independent copy of the live state.
func (a *Adapter) DeepClone() *state.State {
	return a.State().Clone()
}

// Snapshot saves a copy of the live state and returns its id.
func (a *Adapter) Snapshot() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshots = append(a.snapshots, a.state.Clone())
	return len(a.snapshots) - 1
}

// Revert installs the snapshot id as the live state. Snapshots taken after
// id are discarded; id itself stays valid.
func (a *Adapter) Revert(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id < 0 || id >= len(a.snapshots) {
		return invalidArg("unknown snapshot %d", id)
	}
	a.state = a.snapshots[id].Clone()
	a.snapshots = a.snapshots[:id+1]
	logger.Debug("reverted state", "snapshot", id)
	return nil
}

// Close releases the resources of a forked adapter.
func (a *Adapter) Close() {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	closeAll(closers)
}

// closeAll runs closers in reverse order of acquisition.
func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
