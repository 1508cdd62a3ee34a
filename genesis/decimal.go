// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HexOrDecimal256 marshals big.Int as hex or decimal.
// JSON numbers are accepted besides strings.
type HexOrDecimal256 math.HexOrDecimal256

// NewHexOrDecimal256 wraps a copy of i.
func NewHexOrDecimal256(i *big.Int) *HexOrDecimal256 {
	return (*HexOrDecimal256)(new(big.Int).Set(i))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var text string
	if err := json.Unmarshal(input, &text); err != nil {
		return (*big.Int)(i).UnmarshalJSON(input)
	}
	return i.UnmarshalText([]byte(text))
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (i *HexOrDecimal256) UnmarshalText(input []byte) error {
	bigint, ok := math.ParseBig256(string(input))
	if !ok {
		return errors.Errorf("invalid hex or decimal integer %q", input)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
// The scalar is parsed from its source text, so large decimals keep their precision.
func (i *HexOrDecimal256) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected integer scalar", value.Line)
	}
	return i.UnmarshalText([]byte(value.Value))
}

// MarshalJSON implements the json.Marshaler interface.
func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// uint256 converts to a uint256, nil reads as zero.
func (i *HexOrDecimal256) uint256() (*uint256.Int, error) {
	if i == nil {
		return new(uint256.Int), nil
	}
	b := (*big.Int)(i)
	if b.Sign() < 0 {
		return nil, errors.New("negative integer")
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.New("integer overflows 256 bits")
	}
	return v, nil
}
