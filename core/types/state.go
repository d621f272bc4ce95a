// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// Account is one entry of a state allocation.
type Account struct {
	Balance *big.Int
	Nonce   uint64
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cpy := &Account{
		Balance: new(big.Int),
		Nonce:   a.Nonce,
		Code:    common.CopyBytes(a.Code),
		Storage: make(map[common.Hash]common.Hash, len(a.Storage)),
	}
	if a.Balance != nil {
		cpy.Balance.Set(a.Balance)
	}
	for k, v := range a.Storage {
		cpy.Storage[k] = v
	}
	return cpy
}

type accountJSON struct {
	Balance string            `json:"balance"`
	Code    string            `json:"code"`
	Nonce   string            `json:"nonce"`
	Storage map[string]string `json:"storage"`
}

// MarshalJSON encodes the account canonically: every field present, numbers and
// storage slots as minimal even-length hex.
func (a *Account) MarshalJSON() ([]byte, error) {
	enc := accountJSON{
		Balance: CompactHex(a.Balance),
		Code:    hexutil.Encode(a.Code),
		Nonce:   CompactHex(new(big.Int).SetUint64(a.Nonce)),
		Storage: make(map[string]string, len(a.Storage)),
	}
	for k, v := range a.Storage {
		enc.Storage[CompactBytes(k[:])] = CompactBytes(v[:])
	}
	return json.Marshal(&enc)
}

// UnmarshalJSON accepts accounts with any subset of fields. Missing fields take
// their zero value.
func (a *Account) UnmarshalJSON(input []byte) error {
	var dec struct {
		Balance *math.HexOrDecimal256 `json:"balance"`
		Nonce   *math.HexOrDecimal64  `json:"nonce"`
		Code    *hexutil.Bytes        `json:"code"`
		Storage map[string]string     `json:"storage"`
	}
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	a.Balance = new(big.Int)
	if dec.Balance != nil {
		a.Balance.Set((*big.Int)(dec.Balance))
	}
	a.Nonce = 0
	if dec.Nonce != nil {
		a.Nonce = uint64(*dec.Nonce)
	}
	a.Code = nil
	if dec.Code != nil {
		a.Code = *dec.Code
	}
	storage, err := ParseStorage(dec.Storage)
	if err != nil {
		return err
	}
	a.Storage = storage
	return nil
}

// ParseStorage converts hex storage slots of any length up to 32 bytes into
// fixed-size words.
func ParseStorage(raw map[string]string) (map[common.Hash]common.Hash, error) {
	storage := make(map[common.Hash]common.Hash, len(raw))
	for k, v := range raw {
		key, err := ParseWord(k)
		if err != nil {
			return nil, fmt.Errorf("invalid storage key %q: %v", k, err)
		}
		val, err := ParseWord(v)
		if err != nil {
			return nil, fmt.Errorf("invalid storage value %q at key %s: %v", v, k, err)
		}
		storage[key] = val
	}
	return storage, nil
}

// ParseWord parses a 0x-prefixed hex string of up to 32 bytes. Odd lengths and
// leading zeros are accepted.
func ParseWord(s string) (common.Hash, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Hash{}, hexutil.ErrMissingPrefix
	}
	digits := s[2:]
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hexutil.Decode("0x" + digits)
	if err != nil && len(digits) > 0 {
		return common.Hash{}, err
	}
	if len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("word too long: %d bytes", len(b))
	}
	return common.BytesToHash(b), nil
}

// Alloc is a full state allocation, keyed by account address.
type Alloc map[common.Address]*Account

// Copy returns a deep copy of the allocation.
func (a Alloc) Copy() Alloc {
	if a == nil {
		return nil
	}
	cpy := make(Alloc, len(a))
	for addr, acc := range a {
		cpy[addr] = acc.Copy()
	}
	return cpy
}
