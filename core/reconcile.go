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

package core

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/t8nchain/core/types"
)

// Reconcile restores the fields the tool leaves out of its output allocation:
// balance and nonce default to zero, code and storage to empty. Storage words are
// parsed so that they serialize in minimal even-length hex. Accounts missing from
// the tool output are gone from the post state.
func Reconcile(partial map[common.Address]*ToolAccount) (types.Alloc, error) {
	alloc := make(types.Alloc, len(partial))
	for addr, acc := range partial {
		full := &types.Account{
			Balance: new(big.Int),
			Code:    []byte{},
			Storage: make(map[common.Hash]common.Hash),
		}
		if acc == nil {
			alloc[addr] = full
			continue
		}
		if acc.Balance != nil {
			full.Balance.Set((*big.Int)(acc.Balance))
		}
		if acc.Nonce != nil {
			full.Nonce = uint64(*acc.Nonce)
		}
		if acc.Code != nil {
			full.Code = common.CopyBytes(*acc.Code)
		}
		if acc.Storage != nil {
			storage, err := types.ParseStorage(acc.Storage)
			if err != nil {
				return nil, fmt.Errorf("account %s: %v", addr.Hex(), err)
			}
			full.Storage = storage
		}
		alloc[addr] = full
	}
	return alloc, nil
}
