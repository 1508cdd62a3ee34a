// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/forkstate/common"
)

const jsonGenesis = `{
	"accounts": [
		{
			"address": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"balance": "1000000000000000000000",
			"nonce": 1,
			"code": "0x6080",
			"storage": {
				"0x01": "42",
				"2": "0x0"
			}
		},
		{
			"privateKey": "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
			"balance": "0x64"
		}
	]
}`

const yamlGenesis = `
accounts:
  - address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
    balance: 1000000000000000000000
    nonce: 1
    code: "0x6080"
    storage:
      "0x01": 42
      "2": 0
  - privateKey: 4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318
    balance: 0x64
`

func checkAllocs(t *testing.T, gen *Genesis) {
	allocs, err := gen.Allocs()
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	a := allocs[0]
	assert.Equal(t, common.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), a.Address)
	assert.Equal(t, "1000000000000000000000", a.Balance.Dec())
	assert.Equal(t, uint64(1), a.Nonce.Uint64())
	assert.Equal(t, []byte{0x60, 0x80}, a.Code)
	assert.Equal(t, map[common.Bytes32]common.Bytes32{
		{31: 1}: {31: 42},
	}, a.Storage, "zero values are dropped")

	key, err := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	assert.Equal(t, common.Address(crypto.PubkeyToAddress(key.PublicKey)), allocs[1].Address)
	assert.Equal(t, uint64(100), allocs[1].Balance.Uint64())
	assert.True(t, allocs[1].Nonce.IsZero())
	assert.Empty(t, allocs[1].Code)
}

func TestLoadJSON(t *testing.T) {
	gen, err := Load(strings.NewReader(jsonGenesis), FormatJSON)
	require.NoError(t, err)
	checkAllocs(t, gen)
}

func TestLoadYAML(t *testing.T) {
	gen, err := Load(strings.NewReader(yamlGenesis), FormatYAML)
	require.NoError(t, err)
	checkAllocs(t, gen)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"genesis.json": jsonGenesis,
		"genesis.yml":  yamlGenesis,
		"genesis.YAML": yamlGenesis,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		gen, err := LoadFile(path)
		require.NoError(t, err, name)
		checkAllocs(t, gen)
	}

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown field", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","energy":"1"}]}`, "unknown field"},
		{"no address", `{"accounts":[{"balance":"1"}]}`, "address or private key must be set"},
		{"bad key", `{"accounts":[{"privateKey":"0x01"}]}`, "invalid private key"},
		{"negative", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","balance":-1}]}`, "negative integer"},
		{"bad code", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","code":"60"}]}`, "code"},
		{"bad slot", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","storage":{"x":"1"}}]}`, "storage key"},
		{"duplicate slot", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","storage":{"1":"2","0x1":"3"}}]}`, "duplicated storage key"},
		{"duplicate", `{"accounts":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}]}`, "duplicated address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), FormatJSON)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddressKeyMismatch(t *testing.T) {
	addr := common.Address{1}
	acc := Account{
		Address:    &addr,
		PrivateKey: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	}
	_, err := acc.ResolveAddress()
	assert.ErrorContains(t, err, "does not match")
}

func TestHexOrDecimal256JSON(t *testing.T) {
	v := NewHexOrDecimal256(big.NewInt(255))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"0xff"`, string(data))

	var decoded HexOrDecimal256
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, int64(255), (*big.Int)(&decoded).Int64())

	require.NoError(t, json.Unmarshal([]byte(`12`), &decoded))
	assert.Equal(t, int64(12), (*big.Int)(&decoded).Int64())

	assert.Error(t, json.Unmarshal([]byte(`"0x1`+strings.Repeat("0", 64)+`"`), &decoded))
}
