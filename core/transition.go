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
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/probeum/t8nchain/core/types"
	"github.com/probeum/t8nchain/params"
)

// Transitioner executes one block on a reference state transition function.
// Implementations block until the result is available.
type Transitioner interface {
	Transition(ctx context.Context, req *TransitionRequest) (*TransitionResult, error)
}

// TransitionRequest is everything the transition tool needs to execute a block.
type TransitionRequest struct {
	Alloc types.Alloc
	Txs   []*types.LegacyTx
	Env   *Env
	Fork  params.Fork

	// Reward is nil in NoReward mode, in which case no reward is passed at all.
	Reward *uint256.Int
}

// Env is the block environment handed to the tool.
type Env struct {
	Coinbase    common.Address         `json:"currentCoinbase"`
	Difficulty  *math.HexOrDecimal256  `json:"currentDifficulty"`
	GasLimit    math.HexOrDecimal64    `json:"currentGasLimit"`
	Number      math.HexOrDecimal64    `json:"currentNumber"`
	Timestamp   math.HexOrDecimal64    `json:"currentTimestamp"`
	ParentHash  common.Hash            `json:"previousHash"`
	BaseFee     *math.HexOrDecimal256  `json:"currentBaseFee,omitempty"`
	BlockHashes map[string]common.Hash `json:"blockHashes,omitempty"`
	Ommers      []Ommer                `json:"ommers,omitempty"`
}

// Ommer is an uncle as seen by the tool: its distance to the including block
// and its author.
type Ommer struct {
	Delta   uint64         `json:"delta"`
	Address common.Address `json:"address"`
}

// TransitionResult is the tool's answer: the execution result and the partial
// post state.
type TransitionResult struct {
	Result *ExecutionResult
	Alloc  map[common.Address]*ToolAccount
}

// ExecutionResult holds the block fields derived by the tool.
type ExecutionResult struct {
	StateRoot   common.Hash         `json:"stateRoot"`
	TxRoot      common.Hash         `json:"txRoot"`
	ReceiptRoot common.Hash         `json:"receiptRoot"`
	LogsHash    common.Hash         `json:"logsHash"`
	Bloom       types.Bloom         `json:"logsBloom"`
	Receipts    []*Receipt          `json:"receipts"`
	GasUsed     math.HexOrDecimal64 `json:"gasUsed"`
}

// UnmarshalJSON also accepts "receiptsRoot", used by newer tool versions.
func (r *ExecutionResult) UnmarshalJSON(input []byte) error {
	type result ExecutionResult
	var dec struct {
		result
		ReceiptsRoot *common.Hash `json:"receiptsRoot"`
	}
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*r = ExecutionResult(dec.result)
	if dec.ReceiptsRoot != nil && r.ReceiptRoot == (common.Hash{}) {
		r.ReceiptRoot = *dec.ReceiptsRoot
	}
	return nil
}

// Receipt is the part of a tool receipt the chain relies on.
type Receipt struct {
	TxHash  common.Hash         `json:"transactionHash"`
	GasUsed math.HexOrDecimal64 `json:"gasUsed"`
}

// ToolAccount is an account of the tool's output allocation. Every field may be
// missing.
type ToolAccount struct {
	Balance *math.HexOrDecimal256 `json:"balance,omitempty"`
	Nonce   *math.HexOrDecimal64  `json:"nonce,omitempty"`
	Code    *hexutil.Bytes        `json:"code,omitempty"`
	Storage map[string]string     `json:"storage,omitempty"`
}
