// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/forkstate/common"
)

const codecVersion = 1

type codecHeader struct {
	Version  uint
	Accounts uint64
}

type codecAccount struct {
	Address common.Address
	Nonce   *uint256.Int
	Balance *uint256.Int
	Code    []byte
	Storage []codecSlot
}

type codecSlot struct {
	Index common.Bytes32
	Value common.Bytes32
}

type codecTrailer struct {
	Root common.Bytes32
}

// Encode writes the binary form of the state to w: a snappy compressed stream
// of RLP records, a header, one record per account in address order, and the
// state root.
func (s *State) Encode(w io.Writer) error {
	snap := s.Clone()
	root := snap.Root()
	addrs := snap.sortedAddresses()

	sw := snappy.NewBufferedWriter(w)
	if err := rlp.Encode(sw, &codecHeader{codecVersion, uint64(len(addrs))}); err != nil {
		return errors.Wrap(err, "encode header")
	}
	for _, addr := range addrs {
		obj := snap.objects[addr]
		rec := codecAccount{
			Address: addr,
			Nonce:   obj.nonce,
			Balance: obj.balance,
			Code:    snap.codes.get(obj.codeHash),
			Storage: make([]codecSlot, 0, obj.storage.Len()),
		}
		obj.forEachSlot(func(index, value common.Bytes32) bool {
			rec.Storage = append(rec.Storage, codecSlot{index, value})
			return true
		})
		if err := rlp.Encode(sw, &rec); err != nil {
			return errors.Wrapf(err, "encode account %v", addr)
		}
	}
	if err := rlp.Encode(sw, &codecTrailer{root}); err != nil {
		return errors.Wrap(err, "encode trailer")
	}
	return errors.Wrap(sw.Close(), "flush")
}

// Decode reads a state written by Encode. The decoded state must have the
// encoded root.
func Decode(r io.Reader) (*State, error) {
	stream := rlp.NewStream(snappy.NewReader(r), 0)

	var header codecHeader
	if err := stream.Decode(&header); err != nil {
		return nil, &Error{errors.Wrap(err, "decode header")}
	}
	if header.Version != codecVersion {
		return nil, &Error{fmt.Errorf("unsupported codec version %d", header.Version)}
	}

	s := New()
	for i := uint64(0); i < header.Accounts; i++ {
		var rec codecAccount
		if err := stream.Decode(&rec); err != nil {
			return nil, &Error{errors.Wrapf(err, "decode account #%d", i)}
		}
		if _, ok := s.objects[rec.Address]; ok {
			return nil, &Error{fmt.Errorf("duplicated account %v", rec.Address)}
		}
		obj := newObject()
		obj.balance = copyWord(rec.Balance)
		obj.nonce = copyWord(rec.Nonce)
		obj.codeHash = s.codes.put(rec.Code)
		for _, slot := range rec.Storage {
			obj.setSlot(slot.Index, slot.Value)
		}
		s.put(rec.Address, obj)
	}

	var trailer codecTrailer
	if err := stream.Decode(&trailer); err != nil {
		return nil, &Error{errors.Wrap(err, "decode trailer")}
	}
	if root := s.Root(); root != trailer.Root {
		return nil, &Error{fmt.Errorf("root mismatch: want %v, got %v", trailer.Root, root)}
	}
	return s, nil
}
