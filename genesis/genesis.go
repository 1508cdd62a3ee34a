// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the accounts a state is initialized with.
package genesis

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/forkstate/common"
)

// Genesis is a user customized list of initial accounts.
type Genesis struct {
	Accounts []Account `json:"accounts" yaml:"accounts"`
}

// Account is an account to be set in the initial state.
// Either Address or PrivateKey must be given. When both are, they must match.
type Account struct {
	Address    *common.Address             `json:"address,omitempty" yaml:"address,omitempty"`
	PrivateKey string                      `json:"privateKey,omitempty" yaml:"privateKey,omitempty"`
	Balance    *HexOrDecimal256            `json:"balance,omitempty" yaml:"balance,omitempty"`
	Nonce      *HexOrDecimal256            `json:"nonce,omitempty" yaml:"nonce,omitempty"`
	Code       string                      `json:"code,omitempty" yaml:"code,omitempty"`
	Storage    map[string]*HexOrDecimal256 `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// Alloc is a validated genesis account.
type Alloc struct {
	Address common.Address
	Balance *uint256.Int
	Nonce   *uint256.Int
	Code    []byte
	Storage map[common.Bytes32]common.Bytes32
}

// ResolveAddress returns the address of the account, derived from the
// private key if no address is given.
func (a *Account) ResolveAddress() (common.Address, error) {
	if a.PrivateKey == "" {
		if a.Address == nil {
			return common.Address{}, errors.New("address or private key must be set")
		}
		return *a.Address, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(a.PrivateKey, "0x"))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "invalid private key")
	}
	derived := common.Address(crypto.PubkeyToAddress(key.PublicKey))
	if a.Address != nil && *a.Address != derived {
		return common.Address{}, errors.Errorf("address %v does not match private key (%v)", a.Address, derived)
	}
	return derived, nil
}

// Alloc validates the account and converts it into an Alloc.
func (a *Account) Alloc() (*Alloc, error) {
	addr, err := a.ResolveAddress()
	if err != nil {
		return nil, err
	}

	alloc := &Alloc{
		Address: addr,
		Storage: make(map[common.Bytes32]common.Bytes32, len(a.Storage)),
	}
	if alloc.Balance, err = a.Balance.uint256(); err != nil {
		return nil, errors.Wrapf(err, "%v: balance", addr)
	}
	if alloc.Nonce, err = a.Nonce.uint256(); err != nil {
		return nil, errors.Wrapf(err, "%v: nonce", addr)
	}
	if a.Code != "" {
		if alloc.Code, err = hexutil.Decode(a.Code); err != nil {
			return nil, errors.Wrapf(err, "%v: code", addr)
		}
	}
	seen := make(map[common.Bytes32]struct{}, len(a.Storage))
	for k, v := range a.Storage {
		var key HexOrDecimal256
		if err := key.UnmarshalText([]byte(k)); err != nil {
			return nil, errors.Wrapf(err, "%v: storage key", addr)
		}
		index, err := key.uint256()
		if err != nil {
			return nil, errors.Wrapf(err, "%v: storage key %s", addr, k)
		}
		value, err := v.uint256()
		if err != nil {
			return nil, errors.Wrapf(err, "%v: storage value of %s", addr, k)
		}
		slot := common.WordToBytes32(index)
		if _, ok := seen[slot]; ok {
			return nil, errors.Errorf("%v: duplicated storage key %s", addr, k)
		}
		seen[slot] = struct{}{}
		if !value.IsZero() {
			alloc.Storage[slot] = common.WordToBytes32(value)
		}
	}
	return alloc, nil
}

// Allocs validates all accounts. Addresses must be unique.
func (g *Genesis) Allocs() ([]*Alloc, error) {
	return Allocs(g.Accounts)
}

// Allocs validates accounts. Addresses must be unique.
func Allocs(accounts []Account) ([]*Alloc, error) {
	allocs := make([]*Alloc, 0, len(accounts))
	seen := make(map[common.Address]struct{}, len(accounts))
	for i := range accounts {
		alloc, err := accounts[i].Alloc()
		if err != nil {
			return nil, errors.Wrapf(err, "account #%d", i)
		}
		if _, ok := seen[alloc.Address]; ok {
			return nil, errors.Errorf("account #%d: duplicated address %v", i, alloc.Address)
		}
		seen[alloc.Address] = struct{}{}
		allocs = append(allocs, alloc)
	}
	return allocs, nil
}

// Format is the encoding of a genesis file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Load decodes a genesis from r. Unknown fields are rejected.
func Load(r io.Reader, format Format) (*Genesis, error) {
	var gen Genesis
	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&gen); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "decode yaml genesis")
		}
	default:
		decoder := json.NewDecoder(r)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&gen); err != nil {
			return nil, errors.Wrap(err, "decode json genesis")
		}
	}
	if _, err := gen.Allocs(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// LoadFile loads a genesis file. Files with a .yaml or .yml extension are
// decoded as YAML, any other as JSON.
func LoadFile(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Load(bytes.NewReader(data), format)
}
